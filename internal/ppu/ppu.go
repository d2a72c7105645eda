// Package ppu implements the NES 2C02 Picture Processing Unit: the
// register file the CPU sees at $2000-$2007, the loopy v/t/x/w scrolling
// registers, the background shift-register pipeline, sprite evaluation, and
// RGBA frame composition.
package ppu

import (
	"image"
	"image/color"

	"github.com/golang/glog"
)

// Bus is what the PPU needs from the system bus: the pattern tables (CHR,
// forwarded to the cartridge) and nametable VRAM (mirrored according to the
// cartridge's arrangement). It is a separate, narrower interface from the
// CPU-visible bus.Bus — the PPU never sees CPU RAM or APU/controller I/O.
type Bus interface {
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
	ReadVRAM(address uint16) uint8
	WriteVRAM(address uint16, value uint8)
}

const (
	statusSpriteOverflow = 1 << 5
	statusSprite0Hit     = 1 << 6
	statusVBlank         = 1 << 7
)

// PPU is a 2C02 Picture Processing Unit.
type PPU struct {
	bus Bus

	ctrl    uint8
	mask    uint8
	status  uint8
	oamAddr uint8

	v, t uint16
	x    uint8
	w    bool

	readBuffer uint8

	palette [32]uint8
	oam     [256]uint8

	secondaryOAM   [8 * 4]uint8
	spriteCount    int
	spritePatternLo [8]uint8
	spritePatternHi [8]uint8
	spriteX         [8]uint8
	spriteAttr      [8]uint8
	spriteIsZero    [8]bool
	sprite0InRange  bool

	ntNextID   uint8
	atNextByte uint8
	bgNextLo   uint8
	bgNextHi   uint8
	bgShiftLo  uint16
	bgShiftHi  uint16
	atShiftLo  uint16
	atShiftHi  uint16

	scanline int
	cycle    int
	frame    uint64
	oddFrame bool

	frameBuffer *image.RGBA

	nmiCallback           func()
	frameCompleteCallback func()
}

// New creates a PPU wired to a Bus for CHR/VRAM access.
func New(bus Bus) *PPU {
	return &PPU{
		bus:         bus,
		scanline:    -1,
		frameBuffer: image.NewRGBA(image.Rect(0, 0, 256, 240)),
	}
}

// SetNMICallback registers the function the PPU calls when it raises NMI
// (VBlank start with NMI enabled in PPUCTRL).
func (p *PPU) SetNMICallback(fn func()) { p.nmiCallback = fn }

// SetFrameCompleteCallback registers the function the PPU calls once per
// frame, after the last dot of scanline 260, as the counters wrap back to
// the pre-render scanline.
func (p *PPU) SetFrameCompleteCallback(fn func()) { p.frameCompleteCallback = fn }

// Reset returns the PPU to its post-power-up state.
func (p *PPU) Reset() {
	p.ctrl, p.mask, p.status = 0, 0, 0
	p.oamAddr = 0
	p.v, p.t, p.x, p.w = 0, 0, 0, false
	p.readBuffer = 0
	p.scanline, p.cycle = -1, 0
	p.frame, p.oddFrame = 0, false
}

// FrameBuffer returns the PPU's current 256x240 RGBA frame. The same image
// is reused and overwritten every frame; callers that need to retain a
// frame must copy it.
func (p *PPU) FrameBuffer() *image.RGBA { return p.frameBuffer }

// FrameCount returns the number of frames completed since Reset.
func (p *PPU) FrameCount() uint64 { return p.frame }

// ReadRegister implements a CPU read of $2000-$2007 (already demirrored by
// the bus to one of these eight addresses).
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case 0x2002:
		value := p.status
		p.status &^= statusVBlank
		p.w = false
		return value
	case 0x2004:
		return p.oam[p.oamAddr]
	case 0x2007:
		return p.readPPUData()
	default:
		return 0
	}
}

// WriteRegister implements a CPU write of $2000-$2007.
func (p *PPU) WriteRegister(address uint16, value uint8) {
	switch address {
	case 0x2000:
		prevNMIEnabled := p.nmiEnabled()
		p.ctrl = value
		p.t = (p.t & 0xF3FF) | (uint16(value&0x03) << 10)
		if !prevNMIEnabled && p.nmiEnabled() && p.status&statusVBlank != 0 && p.nmiCallback != nil {
			p.nmiCallback()
		}
	case 0x2001:
		p.mask = value
	case 0x2003:
		p.oamAddr = value
	case 0x2004:
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005:
		p.writeScroll(value)
	case 0x2006:
		p.writeAddr(value)
	case 0x2007:
		p.writePPUData(value)
	}
}

func (p *PPU) writeScroll(value uint8) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | uint16(value>>3)
		p.x = value & 0x07
		p.w = true
	} else {
		p.t = (p.t & 0x8FFF) | (uint16(value&0x07) << 12)
		p.t = (p.t & 0xFC1F) | (uint16(value&0xF8) << 2)
		p.w = false
	}
}

func (p *PPU) writeAddr(value uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | (uint16(value&0x3F) << 8)
		p.w = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
		p.w = false
	}
}

func (p *PPU) vramIncrement() uint16 {
	if p.ctrl&0x04 != 0 {
		return 32
	}
	return 1
}

func (p *PPU) readPPUData() uint8 {
	addr := p.v & 0x3FFF
	var value uint8
	switch {
	case addr < 0x2000:
		value = p.readBuffer
		p.readBuffer = p.bus.ReadCHR(addr)
	case addr < 0x3F00:
		value = p.readBuffer
		p.readBuffer = p.bus.ReadVRAM(addr)
	default:
		value = p.readPalette(addr)
		p.readBuffer = p.bus.ReadVRAM(addr - 0x1000)
	}
	p.v += p.vramIncrement()
	return value
}

func (p *PPU) writePPUData(value uint8) {
	addr := p.v & 0x3FFF
	switch {
	case addr < 0x2000:
		p.bus.WriteCHR(addr, value)
	case addr < 0x3F00:
		p.bus.WriteVRAM(addr, value)
	default:
		p.writePalette(addr, value)
	}
	p.v += p.vramIncrement()
}

func (p *PPU) readPalette(addr uint16) uint8 {
	idx := addr & 0x1F
	if idx == 0x10 || idx == 0x14 || idx == 0x18 || idx == 0x1C {
		idx &= 0x0F
	}
	return p.palette[idx]
}

func (p *PPU) writePalette(addr uint16, value uint8) {
	idx := addr & 0x1F
	if idx == 0x10 || idx == 0x14 || idx == 0x18 || idx == 0x1C {
		idx &= 0x0F
	}
	p.palette[idx] = value
}

// WriteOAM writes a byte into primary OAM at the current OAMADDR and
// increments it, exactly as a $2004 write would. The clock uses this for
// OAM DMA so a DMA transfer is, from the PPU's side, indistinguishable from
// 256 consecutive CPU writes to $2004.
func (p *PPU) WriteOAM(value uint8) {
	p.WriteRegister(0x2004, value)
}

func (p *PPU) backgroundEnabled() bool { return p.mask&0x08 != 0 }
func (p *PPU) spritesEnabled() bool    { return p.mask&0x10 != 0 }
func (p *PPU) renderingEnabled() bool  { return p.backgroundEnabled() || p.spritesEnabled() }
func (p *PPU) nmiEnabled() bool        { return p.ctrl&0x80 != 0 }

func (p *PPU) bgPatternTable() uint16 {
	if p.ctrl&0x10 != 0 {
		return 0x1000
	}
	return 0
}

func (p *PPU) spritePatternTable() uint16 {
	if p.ctrl&0x08 != 0 {
		return 0x1000
	}
	return 0
}

func (p *PPU) spriteHeight() int {
	if p.ctrl&0x20 != 0 {
		return 16
	}
	return 8
}

// Step advances the PPU by one PPU dot (1/3 of a CPU cycle).
func (p *PPU) Step() {
	if p.scanline >= -1 && p.scanline < 240 {
		p.renderDot()
	}

	if p.scanline == 241 && p.cycle == 1 {
		p.status |= statusVBlank
		if p.nmiEnabled() && p.nmiCallback != nil {
			p.nmiCallback()
		}
	}
	if p.scanline == -1 && p.cycle == 1 {
		p.status &^= statusVBlank | statusSprite0Hit | statusSpriteOverflow
	}

	p.cycle++
	if p.cycle > 340 {
		p.cycle = 0
		p.scanline++
		if p.scanline > 260 {
			p.scanline = -1
			p.oddFrame = !p.oddFrame
			p.frame++
			if p.frameCompleteCallback != nil {
				p.frameCompleteCallback()
			}
		}
	}
}

func (p *PPU) renderDot() {
	c := p.cycle

	if (c >= 2 && c < 258) || (c >= 321 && c < 338) {
		p.shiftBackground()
		switch (c - 1) % 8 {
		case 0:
			p.loadBackgroundShifters()
			p.ntNextID = p.bus.ReadVRAM(0x2000 | (p.v & 0x0FFF))
		case 2:
			addr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
			p.atNextByte = p.bus.ReadVRAM(addr)
		case 4:
			fineY := (p.v >> 12) & 7
			addr := p.bgPatternTable() + uint16(p.ntNextID)*16 + fineY
			p.bgNextLo = p.bus.ReadCHR(addr)
		case 6:
			fineY := (p.v >> 12) & 7
			addr := p.bgPatternTable() + uint16(p.ntNextID)*16 + fineY + 8
			p.bgNextHi = p.bus.ReadCHR(addr)
		case 7:
			if p.renderingEnabled() {
				p.incrementScrollX()
			}
		}
	}

	if c == 256 && p.renderingEnabled() {
		p.incrementScrollY()
	}
	if c == 257 {
		p.loadBackgroundShifters()
		if p.renderingEnabled() {
			p.copyScrollX()
		}
		p.evaluateSprites()
	}
	if c == 338 || c == 340 {
		p.ntNextID = p.bus.ReadVRAM(0x2000 | (p.v & 0x0FFF))
	}
	if p.scanline == -1 && c >= 280 && c < 305 && p.renderingEnabled() {
		p.copyScrollY()
	}

	if p.scanline >= 0 && p.scanline < 240 && c >= 1 && c <= 256 {
		p.renderPixel(c-1, p.scanline)
	}
}

func (p *PPU) shiftBackground() {
	if !p.backgroundEnabled() {
		return
	}
	p.bgShiftLo <<= 1
	p.bgShiftHi <<= 1
	p.atShiftLo <<= 1
	p.atShiftHi <<= 1
}

func (p *PPU) loadBackgroundShifters() {
	p.bgShiftLo = (p.bgShiftLo & 0xFF00) | uint16(p.bgNextLo)
	p.bgShiftHi = (p.bgShiftHi & 0xFF00) | uint16(p.bgNextHi)

	coarseX := (p.v >> 1) & 1
	coarseYBit := (p.v >> 6) & 1
	shift := (coarseYBit<<1 | coarseX) * 2
	attrBits := (p.atNextByte >> shift) & 0x03

	var lo, hi uint16
	if attrBits&0x01 != 0 {
		lo = 0xFF
	}
	if attrBits&0x02 != 0 {
		hi = 0xFF
	}
	p.atShiftLo = (p.atShiftLo & 0xFF00) | lo
	p.atShiftHi = (p.atShiftHi & 0xFF00) | hi
}

func (p *PPU) incrementScrollX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementScrollY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = (p.v &^ 0x03E0) | (y << 5)
}

func (p *PPU) copyScrollX() {
	p.v = (p.v & 0xFBE0) | (p.t & 0x041F)
}

func (p *PPU) copyScrollY() {
	p.v = (p.v & 0x841F) | (p.t & 0x7BE0)
}

// evaluateSprites scans primary OAM for sprites that intersect the next
// scanline, filling secondary OAM (up to 8) and pre-fetching their pattern
// bytes. Overflow is flagged via simple 9th-match counting rather than
// hardware's buggy diagonal OAM read.
func (p *PPU) evaluateSprites() {
	nextLine := p.scanline + 1
	p.spriteCount = 0
	p.sprite0InRange = false
	height := p.spriteHeight()

	for i := 0; i < 64 && p.spriteCount < 8; i++ {
		y := int(p.oam[i*4])
		if nextLine < y || nextLine >= y+height {
			continue
		}
		base := p.spriteCount * 4
		p.secondaryOAM[base+0] = p.oam[i*4+0]
		p.secondaryOAM[base+1] = p.oam[i*4+1]
		p.secondaryOAM[base+2] = p.oam[i*4+2]
		p.secondaryOAM[base+3] = p.oam[i*4+3]
		p.spriteIsZero[p.spriteCount] = i == 0
		if i == 0 {
			p.sprite0InRange = true
		}
		p.spriteCount++
	}

	if p.spriteCount == 8 {
		extra := 0
		for i := 0; i < 64; i++ {
			y := int(p.oam[i*4])
			if nextLine >= y && nextLine < y+height {
				extra++
			}
		}
		if extra > 8 {
			p.status |= statusSpriteOverflow
		}
	}

	for s := 0; s < p.spriteCount; s++ {
		tileY := p.secondaryOAM[s*4+0]
		tileIdx := p.secondaryOAM[s*4+1]
		attr := p.secondaryOAM[s*4+2]
		tileX := p.secondaryOAM[s*4+3]

		row := nextLine - int(tileY)
		flipV := attr&0x80 != 0
		flipH := attr&0x40 != 0

		var patternAddr uint16
		if height == 16 {
			table := uint16(tileIdx&0x01) * 0x1000
			tile := uint16(tileIdx &^ 0x01)
			if flipV {
				row = 15 - row
			}
			if row >= 8 {
				tile++
				row -= 8
			}
			patternAddr = table + tile*16 + uint16(row)
		} else {
			if flipV {
				row = 7 - row
			}
			patternAddr = p.spritePatternTable() + uint16(tileIdx)*16 + uint16(row)
		}

		lo := p.bus.ReadCHR(patternAddr)
		hi := p.bus.ReadCHR(patternAddr + 8)
		if flipH {
			lo = reverseBits(lo)
			hi = reverseBits(hi)
		}

		p.spritePatternLo[s] = lo
		p.spritePatternHi[s] = hi
		p.spriteX[s] = tileX
		p.spriteAttr[s] = attr
	}
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

func (p *PPU) renderPixel(x, y int) {
	bgPixel, bgPalette := uint8(0), uint8(0)
	if p.backgroundEnabled() {
		shift := uint16(15 - p.x)
		lo := uint8((p.bgShiftLo >> shift) & 1)
		hi := uint8((p.bgShiftHi >> shift) & 1)
		bgPixel = hi<<1 | lo

		alo := uint8((p.atShiftLo >> shift) & 1)
		ahi := uint8((p.atShiftHi >> shift) & 1)
		bgPalette = ahi<<1 | alo
	}

	spritePixel, spritePalette, spritePriority, isSprite0 := uint8(0), uint8(0), uint8(0), false
	if p.spritesEnabled() {
		for s := 0; s < p.spriteCount; s++ {
			offset := x - int(p.spriteX[s])
			if offset < 0 || offset > 7 {
				continue
			}
			bit := uint(7 - offset)
			lo := (p.spritePatternLo[s] >> bit) & 1
			hi := (p.spritePatternHi[s] >> bit) & 1
			pix := hi<<1 | lo
			if pix == 0 {
				continue
			}
			spritePixel = pix
			spritePalette = (p.spriteAttr[s] & 0x03) + 4
			spritePriority = (p.spriteAttr[s] >> 5) & 1
			isSprite0 = p.spriteIsZero[s]
			break
		}
	}

	if isSprite0 && p.sprite0InRange && bgPixel != 0 && spritePixel != 0 && x != 255 && p.renderingEnabled() {
		p.status |= statusSprite0Hit
	}

	var finalPixel, finalPalette uint8
	switch {
	case bgPixel == 0 && spritePixel == 0:
		finalPixel, finalPalette = 0, 0
	case bgPixel == 0:
		finalPixel, finalPalette = spritePixel, spritePalette
	case spritePixel == 0:
		finalPixel, finalPalette = bgPixel, bgPalette
	case spritePriority == 0:
		finalPixel, finalPalette = spritePixel, spritePalette
	default:
		finalPixel, finalPalette = bgPixel, bgPalette
	}

	colorIndex := p.readPalette(0x3F00 + uint16(finalPalette)*4 + uint16(finalPixel))
	rgb := nesPalette[colorIndex&0x3F]
	p.frameBuffer.SetRGBA(x, y, rgb)
}

// VBlank reports whether the PPU currently has its VBlank status bit set.
func (p *PPU) VBlank() bool { return p.status&statusVBlank != 0 }

// Sprite0Hit reports whether sprite 0 has hit the background this frame.
func (p *PPU) Sprite0Hit() bool { return p.status&statusSprite0Hit != 0 }

func init() {
	if len(nesPalette) != 64 {
		glog.Fatalf("ppu: NES palette table must have exactly 64 entries, has %d", len(nesPalette))
	}
}

// nesPalette is the 2C02's fixed 64-color NTSC output palette.
var nesPalette = [64]color.RGBA{
	{0x62, 0x62, 0x62, 0xFF}, {0x00, 0x1F, 0xB2, 0xFF}, {0x24, 0x04, 0xC8, 0xFF}, {0x52, 0x00, 0xB2, 0xFF},
	{0x73, 0x00, 0x76, 0xFF}, {0x80, 0x00, 0x24, 0xFF}, {0x73, 0x0B, 0x00, 0xFF}, {0x52, 0x28, 0x00, 0xFF},
	{0x24, 0x44, 0x00, 0xFF}, {0x00, 0x57, 0x00, 0xFF}, {0x00, 0x5C, 0x00, 0xFF}, {0x00, 0x53, 0x24, 0xFF},
	{0x00, 0x3C, 0x76, 0xFF}, {0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF},
	{0xAB, 0xAB, 0xAB, 0xFF}, {0x0D, 0x57, 0xFF, 0xFF}, {0x4B, 0x30, 0xFF, 0xFF}, {0x8A, 0x13, 0xFF, 0xFF},
	{0xBC, 0x08, 0xD6, 0xFF}, {0xD2, 0x12, 0x69, 0xFF}, {0xC7, 0x2E, 0x00, 0xFF}, {0x9D, 0x54, 0x00, 0xFF},
	{0x60, 0x7B, 0x00, 0xFF}, {0x20, 0x98, 0x00, 0xFF}, {0x00, 0xA3, 0x00, 0xFF}, {0x00, 0x99, 0x42, 0xFF},
	{0x00, 0x7D, 0xB4, 0xFF}, {0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF},
	{0xFF, 0xFF, 0xFF, 0xFF}, {0x53, 0xAE, 0xFF, 0xFF}, {0x90, 0x85, 0xFF, 0xFF}, {0xD3, 0x65, 0xFF, 0xFF},
	{0xFF, 0x57, 0xFF, 0xFF}, {0xFF, 0x5D, 0xCF, 0xFF}, {0xFF, 0x77, 0x57, 0xFF}, {0xFA, 0x9E, 0x00, 0xFF},
	{0xBD, 0xC7, 0x00, 0xFF}, {0x7A, 0xE7, 0x00, 0xFF}, {0x43, 0xF6, 0x11, 0xFF}, {0x26, 0xF0, 0x7C, 0xFF},
	{0x2C, 0xD5, 0xE4, 0xFF}, {0x4E, 0x4E, 0x4E, 0xFF}, {0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF},
	{0xFF, 0xFF, 0xFF, 0xFF}, {0xB6, 0xE1, 0xFF, 0xFF}, {0xCE, 0xD1, 0xFF, 0xFF}, {0xE9, 0xC3, 0xFF, 0xFF},
	{0xFF, 0xBC, 0xFF, 0xFF}, {0xFF, 0xBD, 0xF4, 0xFF}, {0xFF, 0xC6, 0xC3, 0xFF}, {0xFF, 0xD5, 0x9A, 0xFF},
	{0xE9, 0xE6, 0x81, 0xFF}, {0xCE, 0xF4, 0x81, 0xFF}, {0xB6, 0xFB, 0x9A, 0xFF}, {0xA9, 0xFA, 0xC3, 0xFF},
	{0xA9, 0xF0, 0xF4, 0xFF}, {0xB8, 0xB8, 0xB8, 0xFF}, {0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF},
}
