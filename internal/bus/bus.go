// Package bus implements the NES CPU-visible address space: internal RAM,
// PPU register mirroring, APU/controller I/O, and cartridge forwarding. It
// also exposes the separate PPU-side memory mapping (CHR and nametable VRAM
// with mirroring) used only by the PPU, never by the CPU.
package bus

import (
	"github.com/golang/glog"

	"gones/internal/cartridge"
)

// PPURegisters is the subset of the PPU the bus needs to mirror $2000-$3FFF.
// OAM-DMA bytes do not go through it; see SetOAMDMACallback.
type PPURegisters interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// APURegisters is the subset of the APU the bus needs for $4000-$4017.
type APURegisters interface {
	WriteRegister(address uint16, value uint8)
	ReadStatus() uint8
}

// InputPorts is the subset of the controller input system the bus needs for
// $4016/$4017.
type InputPorts interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CartridgeMemory is what the bus needs from a loaded cartridge.
type CartridgeMemory interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) (uint8, error)
	WriteCHR(address uint16, value uint8) error
	MirrorMode() cartridge.MirrorMode
}

// Bus is the CPU's view of NES memory: 2KB of internal RAM, mirrored PPU
// registers, APU/controller I/O, and the cartridge. It also owns the 4KB of
// nametable VRAM that the PPU addresses through mirroring (4KB rather than
// 2KB so FourScreen cartridges, which bank in two extra on-cart KB, have
// somewhere to live).
type Bus struct {
	ram           [0x800]uint8
	nametableVRAM [0x1000]uint8

	ppu       PPURegisters
	apu       APURegisters
	input     InputPorts
	cartridge CartridgeMemory

	oamDMA func(page uint8)
}

// New creates a Bus wired to the given PPU, APU, and input systems. ppu may
// be nil if the PPU itself needs a reference to this Bus to construct
// (the common case, since the PPU's memory interface is the Bus); call
// SetPPU once the PPU exists.
func New(ppu PPURegisters, apu APURegisters, input InputPorts) *Bus {
	return &Bus{ppu: ppu, apu: apu, input: input}
}

// SetPPU attaches the PPU after construction, breaking the Bus/PPU
// constructor cycle (the PPU needs a Bus to read CHR/VRAM through).
func (b *Bus) SetPPU(ppu PPURegisters) {
	b.ppu = ppu
}

// LoadCartridge attaches a cartridge, replacing any previously loaded one.
func (b *Bus) LoadCartridge(cart CartridgeMemory) {
	b.cartridge = cart
	b.nametableVRAM = [0x1000]uint8{}
}

// SetOAMDMACallback registers the function invoked when the CPU writes to
// $4014. The callback receives the page byte; it is responsible for reading
// the 256 source bytes back through Bus.Read and charging CPU cycles, since
// only the clock driving the CPU knows the current cycle parity.
func (b *Bus) SetOAMDMACallback(fn func(page uint8)) {
	b.oamDMA = fn
}

// Read implements cpu.MemoryInterface: a single byte read from the CPU's
// 16-bit address space.
func (b *Bus) Read(address uint16) uint8 {
	switch {
	case address < 0x2000:
		return b.ram[address&0x07FF]

	case address < 0x4000:
		return b.ppu.ReadRegister(0x2000 + (address & 0x0007))

	case address < 0x4020:
		switch {
		case address == 0x4015:
			return b.apu.ReadStatus()
		case address == 0x4016 || address == 0x4017:
			return b.input.Read(address)
		default:
			return 0
		}

	case address < 0x6000:
		return 0 // cartridge expansion area, unmapped for NROM

	default:
		if b.cartridge == nil {
			return 0
		}
		return b.cartridge.ReadPRG(address)
	}
}

// Write implements cpu.MemoryInterface: a single byte write into the CPU's
// 16-bit address space.
func (b *Bus) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		b.ram[address&0x07FF] = value

	case address < 0x4000:
		b.ppu.WriteRegister(0x2000+(address&0x0007), value)

	case address < 0x4020:
		switch {
		case address == 0x4014:
			if b.oamDMA != nil {
				b.oamDMA(value)
			} else {
				glog.V(1).Infof("bus: OAM DMA write to $4014 with no callback registered")
			}
		case address == 0x4016:
			b.input.Write(address, value)
		case address == 0x4015 || address == 0x4017 || (address >= 0x4000 && address <= 0x4013):
			b.apu.WriteRegister(address, value)
		}

	case address < 0x6000:
		// cartridge expansion area, unmapped for NROM

	default:
		if b.cartridge != nil {
			b.cartridge.WritePRG(address, value)
		}
	}
}

// ReadCHR reads a pattern-table byte on behalf of the PPU. The PPU bus
// ($0000-$3FFF) is separate from the CPU bus above; CHR always forwards to
// the cartridge. The address is masked to the 8KB pattern-table window
// before forwarding, so the cartridge's InvalidChrAddress never fires here.
func (b *Bus) ReadCHR(address uint16) uint8 {
	if b.cartridge == nil {
		return 0
	}
	value, err := b.cartridge.ReadCHR(address & 0x1FFF)
	if err != nil {
		glog.V(2).Infof("bus: ReadCHR: %v", err)
		return 0
	}
	return value
}

// WriteCHR writes a pattern-table byte (CHR RAM only) on behalf of the PPU.
func (b *Bus) WriteCHR(address uint16, value uint8) {
	if b.cartridge == nil {
		return
	}
	if err := b.cartridge.WriteCHR(address&0x1FFF, value); err != nil {
		glog.V(2).Infof("bus: WriteCHR: %v", err)
	}
}

// ReadVRAM reads a nametable byte on behalf of the PPU, applying the
// cartridge's mirroring mode.
func (b *Bus) ReadVRAM(address uint16) uint8 {
	return b.nametableVRAM[b.vramIndex(address)]
}

// WriteVRAM writes a nametable byte on behalf of the PPU, applying the
// cartridge's mirroring mode.
func (b *Bus) WriteVRAM(address uint16, value uint8) {
	b.nametableVRAM[b.vramIndex(address)] = value
}

func (b *Bus) vramIndex(address uint16) uint16 {
	mode := cartridge.MirrorHorizontal
	if b.cartridge != nil {
		mode = b.cartridge.MirrorMode()
	}
	return cartridge.MirrorVRAM(mode, address)
}
