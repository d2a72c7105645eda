package ppu

import "testing"

type stubBus struct {
	chr  [0x2000]uint8
	vram [0x1000]uint8
}

func (b *stubBus) ReadCHR(address uint16) uint8         { return b.chr[address&0x1FFF] }
func (b *stubBus) WriteCHR(address uint16, value uint8) { b.chr[address&0x1FFF] = value }
func (b *stubBus) ReadVRAM(address uint16) uint8        { return b.vram[address&0x0FFF] }
func (b *stubBus) WriteVRAM(address uint16, value uint8) { b.vram[address&0x0FFF] = value }

func TestFrameBuffer_Dimensions(t *testing.T) {
	p := New(&stubBus{})
	bounds := p.FrameBuffer().Bounds()
	if bounds.Dx() != 256 || bounds.Dy() != 240 {
		t.Fatalf("frame buffer size = %dx%d, want 256x240", bounds.Dx(), bounds.Dy())
	}
}

func TestReadRegister_2002ClearsVBlankAndLatch(t *testing.T) {
	p := New(&stubBus{})
	p.status |= statusVBlank
	p.w = true

	value := p.ReadRegister(0x2002)
	if value&statusVBlank == 0 {
		t.Fatal("first read of $2002 should still report VBlank set")
	}
	if p.status&statusVBlank != 0 {
		t.Fatal("reading $2002 should clear VBlank")
	}
	if p.w {
		t.Fatal("reading $2002 should clear the write-toggle latch")
	}
}

func TestWriteRegister_2000RaisesNMIOnEnableDuringVBlank(t *testing.T) {
	p := New(&stubBus{})
	p.status |= statusVBlank

	fired := false
	p.SetNMICallback(func() { fired = true })

	p.WriteRegister(0x2000, 0x80) // enable NMI generation
	if !fired {
		t.Fatal("enabling NMI while VBlank is set should raise an NMI edge immediately")
	}
}

func TestWriteRegister_2000NoNMIWithoutVBlank(t *testing.T) {
	p := New(&stubBus{})

	fired := false
	p.SetNMICallback(func() { fired = true })

	p.WriteRegister(0x2000, 0x80)
	if fired {
		t.Fatal("enabling NMI outside VBlank should not raise an NMI edge")
	}
}

func TestStep_SetsVBlankAtScanline241Cycle1(t *testing.T) {
	p := New(&stubBus{})
	nmiCount := 0
	p.SetNMICallback(func() { nmiCount++ })
	p.WriteRegister(0x2000, 0x80)

	// The PPU starts on pre-render scanline -1, so 242 full scanlines
	// (-1..240) plus dots 0 and 1 of scanline 241 are needed.
	for i := 0; i < 341*242+2; i++ {
		p.Step()
	}

	if !p.VBlank() {
		t.Fatal("VBlank should be set after reaching scanline 241")
	}
	if nmiCount != 1 {
		t.Fatalf("nmiCount = %d, want 1", nmiCount)
	}
}

func TestFrameCount_IncrementsAfterFullFrame(t *testing.T) {
	p := New(&stubBus{})
	for i := 0; i < 341*262; i++ {
		p.Step()
	}
	if p.FrameCount() != 1 {
		t.Fatalf("FrameCount = %d, want 1", p.FrameCount())
	}
}

func TestRenderPixel_Sprite0Hit(t *testing.T) {
	b := &stubBus{}
	// Tile 0's pattern is opaque everywhere: plane 0 all ones, plane 1 all
	// zeros, giving pixel value 1 for every row/column. Background tile 0
	// (nametable byte 0, attribute byte 0) and sprite tile 0 both read from
	// this same pattern, so both are non-transparent wherever they overlap.
	for row := 0; row < 8; row++ {
		b.chr[row] = 0xFF
	}

	p := New(b)
	p.WriteRegister(0x2001, 0x18) // show background and sprites

	p.WriteRegister(0x2003, 0x00) // OAMADDR = 0
	const spriteY, spriteX = 10, 20
	p.WriteOAM(spriteY) // Y
	p.WriteOAM(0x00)    // tile 0
	p.WriteOAM(0x00)    // attributes: in front of background
	p.WriteOAM(spriteX) // X

	// Step past the scanline where sprite 0's pattern overlaps the
	// background at x=20 (y=10, well inside the sprite's 8-row height).
	for i := 0; i < 341*(spriteY+1)+spriteX+5; i++ {
		p.Step()
	}

	if !p.Sprite0Hit() {
		t.Fatal("sprite 0 hit bit not set after overlapping an opaque background pixel")
	}
}

func TestWriteOAM_AdvancesOAMAddr(t *testing.T) {
	p := New(&stubBus{})
	p.WriteRegister(0x2003, 0x10) // OAMADDR = $10
	p.WriteOAM(0xAB)

	if got := p.oam[0x10]; got != 0xAB {
		t.Fatalf("oam[0x10] = 0x%02X, want 0xAB", got)
	}
	if p.oamAddr != 0x11 {
		t.Fatalf("oamAddr = 0x%02X, want 0x11", p.oamAddr)
	}
}
