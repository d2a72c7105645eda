// Package apu is a register-level stand-in for the NES Audio Processing
// Unit: it sinks every write a game makes to $4000-$4013, $4015, and
// $4017 and answers $4015 reads, but synthesizes no audio. Audio output is
// out of scope for this module.
package apu

const numRegisters = 0x18 // $4000-$4017

// APU records every register write a game makes without ever producing a
// sample. Games that poll $4015 expecting channels to go silent (the usual
// case once this core stops feeding them) see that immediately, since no
// channel here ever reports active.
type APU struct {
	registers        [numRegisters]uint8
	frameSequenceStep uint8
}

// New creates an APU with all registers at their power-up zero value.
func New() *APU {
	return &APU{}
}

// Reset clears all registers and the frame-sequencer step.
func (a *APU) Reset() {
	*a = APU{}
}

// Step is a no-op placeholder; this package produces no samples. The clock
// drives only the CPU and PPU and does not call it.
func (a *APU) Step() {}

// WriteRegister stores value at the given $4000-$4017 register. A write to
// $4017 additionally resets the frame sequencer's step counter, matching
// the real APU's frame-counter reset on write.
func (a *APU) WriteRegister(address uint16, value uint8) {
	offset := address - 0x4000
	if offset >= numRegisters {
		return
	}
	a.registers[offset] = value
	if address == 0x4017 {
		a.frameSequenceStep = 0
	}
}

// ReadRegister returns the last value written to the given $4000-$4017
// register. Used only by tests; the CPU never reads these addresses
// directly except $4015, which goes through ReadStatus.
func (a *APU) ReadRegister(address uint16) uint8 {
	offset := address - 0x4000
	if offset >= numRegisters {
		return 0
	}
	return a.registers[offset]
}

// ReadStatus implements a CPU read of $4015. No channel is ever active in
// this sink, so it always reports 0.
func (a *APU) ReadStatus() uint8 {
	return 0
}
