// Package clock drives the CPU and PPU together at the NES's fixed 1:3
// cycle ratio, forwards NMI edges from the PPU to the CPU, and services
// OAM DMA transfers triggered by a CPU write to $4014.
package clock

import (
	"image"

	"github.com/golang/glog"

	"gones/internal/bus"
	"gones/internal/cpu"
	"gones/internal/ppu"
)

// Clock holds the wiring between the CPU, PPU, and Bus plus the small
// amount of arbitration state that wiring needs (a pending-NMI latch, the
// OAM DMA stall still to charge, and CPU cycle parity): it is the thing that
// knows how many PPU dots one CPU cycle is worth and how to charge OAM DMA's
// stall cycles.
type Clock struct {
	CPU *cpu.CPU
	PPU *ppu.PPU
	Bus *bus.Bus

	pendingNMI     bool
	dmaExtraCycles uint64
	evenCycle      bool
}

// New wires the PPU's NMI output and the Bus's OAM-DMA trigger to a Clock
// that arbitrates the given CPU, PPU, and Bus.
func New(c *cpu.CPU, p *ppu.PPU, b *bus.Bus) *Clock {
	cl := &Clock{CPU: c, PPU: p, Bus: b}
	p.SetNMICallback(cl.onNMI)
	b.SetOAMDMACallback(cl.triggerOAMDMA)
	return cl
}

// Reset resets the PPU and CPU and clears any in-flight DMA/NMI state.
func (cl *Clock) Reset() {
	cl.PPU.Reset()
	cl.CPU.Reset()
	cl.pendingNMI = false
	cl.dmaExtraCycles = 0
	cl.evenCycle = true
}

func (cl *Clock) onNMI() {
	cl.pendingNMI = true
}

// triggerOAMDMA copies 256 bytes from page*0x100 into OAM through the bus
// and PPU, then charges the CPU stall: 513 cycles on an even CPU cycle,
// 514 on an odd one, since the DMA must wait for the current read/write
// cycle to finish before it can start stealing cycles.
func (cl *Clock) triggerOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := 0; i < 256; i++ {
		value := cl.Bus.Read(base + uint16(i))
		cl.PPU.WriteOAM(value)
	}
	if cl.evenCycle {
		cl.dmaExtraCycles += 513
	} else {
		cl.dmaExtraCycles += 514
	}
}

// RunFrame advances emulation until the PPU completes one full frame and
// returns its frame buffer. The CPU executes one instruction (or services
// one pending interrupt) per iteration; its cycle cost is charged to the
// PPU at 3 PPU dots per CPU cycle, plus any OAM DMA stall accumulated this
// iteration.
func (cl *Clock) RunFrame() (*image.RGBA, error) {
	startFrame := cl.PPU.FrameCount()

	for cl.PPU.FrameCount() == startFrame {
		if cl.pendingNMI {
			cl.pendingNMI = false
			cl.CPU.TriggerNMI()
		}

		cpuCycles, err := cl.CPU.Step()
		if err != nil {
			return nil, err
		}

		cpuCycles += cl.dmaExtraCycles
		cl.dmaExtraCycles = 0

		if cpuCycles%2 != 0 {
			cl.evenCycle = !cl.evenCycle
		}

		ppuDots := cpuCycles * 3
		for i := uint64(0); i < ppuDots; i++ {
			cl.PPU.Step()
		}
	}

	glog.V(2).Infof("clock: frame %d complete", cl.PPU.FrameCount())
	return cl.PPU.FrameBuffer(), nil
}
