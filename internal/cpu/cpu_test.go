package cpu

import "testing"

type flatMemory struct {
	data [0x10000]uint8
}

func (m *flatMemory) Read(address uint16) uint8  { return m.data[address] }
func (m *flatMemory) Write(address uint16, value uint8) { m.data[address] = value }

func newTestCPU(resetVectorTarget uint16) (*CPU, *flatMemory) {
	mem := &flatMemory{}
	mem.data[resetVector] = uint8(resetVectorTarget)
	mem.data[resetVector+1] = uint8(resetVectorTarget >> 8)
	c := New(mem)
	c.Reset()
	return c, mem
}

func TestReset_LoadsVectorAndPowerUpState(t *testing.T) {
	c, _ := newTestCPU(0x8000)
	if c.PC != 0x8000 {
		t.Fatalf("PC = $%04X, want $8000", c.PC)
	}
	if c.SP != 0xFD {
		t.Fatalf("SP = $%02X, want $FD", c.SP)
	}
	if !c.I {
		t.Fatal("I flag should be set after reset")
	}
	if c.A != 0 || c.X != 0 || c.Y != 0 {
		t.Fatalf("registers not zeroed: A=%d X=%d Y=%d", c.A, c.X, c.Y)
	}
}

func TestStep_TwoNOPs(t *testing.T) {
	c, mem := newTestCPU(0x8000)
	mem.data[0x8000] = 0xEA // NOP
	mem.data[0x8001] = 0xEA // NOP

	cycles, err := c.Step()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cycles != 2 {
		t.Fatalf("NOP cycles = %d, want 2", cycles)
	}
	if c.PC != 0x8001 {
		t.Fatalf("PC after first NOP = $%04X, want $8001", c.PC)
	}

	cycles, err = c.Step()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cycles != 2 {
		t.Fatalf("NOP cycles = %d, want 2", cycles)
	}
	if c.PC != 0x8002 {
		t.Fatalf("PC after second NOP = $%04X, want $8002", c.PC)
	}
	if c.TotalCycles() != 4 {
		t.Fatalf("TotalCycles = %d, want 4", c.TotalCycles())
	}
}

func TestStep_LDAImmediateSetsFlags(t *testing.T) {
	c, mem := newTestCPU(0x8000)
	mem.data[0x8000] = 0xA9 // LDA #$00
	mem.data[0x8001] = 0x00

	if _, err := c.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.A != 0 || !c.Z || c.N {
		t.Fatalf("LDA #$00: A=%d Z=%v N=%v, want A=0 Z=true N=false", c.A, c.Z, c.N)
	}

	mem.data[0x8002] = 0xA9 // LDA #$80
	mem.data[0x8003] = 0x80
	if _, err := c.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.A != 0x80 || c.Z || !c.N {
		t.Fatalf("LDA #$80: A=%02X Z=%v N=%v, want A=80 Z=false N=true", c.A, c.Z, c.N)
	}
}

func TestStep_UnimplementedOpcode(t *testing.T) {
	c, mem := newTestCPU(0x8000)
	mem.data[0x8000] = 0x02 // not an official opcode

	_, err := c.Step()
	if err == nil {
		t.Fatal("expected an error for an unofficial opcode")
	}
	unimpl, ok := err.(*UnimplementedOpcode)
	if !ok {
		t.Fatalf("error type = %T, want *UnimplementedOpcode", err)
	}
	if unimpl.Opcode != 0x02 || unimpl.PC != 0x8000 {
		t.Fatalf("UnimplementedOpcode = %+v, want {Opcode:0x02 PC:0x8000}", unimpl)
	}
}

func TestJMPIndirectPageBoundaryBug(t *testing.T) {
	c, mem := newTestCPU(0x8000)
	mem.data[0x8000] = 0x6C // JMP ($30FF)
	mem.data[0x8001] = 0xFF
	mem.data[0x8002] = 0x30
	mem.data[0x30FF] = 0x00
	mem.data[0x3000] = 0x40 // bug: high byte fetched from $3000, not $3100
	mem.data[0x3100] = 0x80

	if _, err := c.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.PC != 0x4000 {
		t.Fatalf("PC = $%04X, want $4000 (page-wrap bug)", c.PC)
	}
}

func TestTriggerNMI_ServicedBeforeNextInstruction(t *testing.T) {
	c, mem := newTestCPU(0x8000)
	mem.data[nmiVector] = 0x00
	mem.data[nmiVector+1] = 0x90
	mem.data[0x8000] = 0xEA // NOP, never executed

	c.TriggerNMI()
	cycles, err := c.Step()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cycles != 7 {
		t.Fatalf("NMI service cycles = %d, want 7", cycles)
	}
	if c.PC != 0x9000 {
		t.Fatalf("PC after NMI = $%04X, want $9000", c.PC)
	}
	if !c.I {
		t.Fatal("I flag should be set after servicing NMI")
	}
}

func TestSetIRQ_MaskedByIFlag(t *testing.T) {
	c, mem := newTestCPU(0x8000)
	mem.data[irqVector] = 0x00
	mem.data[irqVector+1] = 0x91
	mem.data[0x8000] = 0xEA

	c.I = true
	c.SetIRQ(true)
	cycles, err := c.Step()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cycles != 2 {
		t.Fatalf("masked IRQ should let the NOP execute, got %d cycles", cycles)
	}
	if c.PC != 0x8001 {
		t.Fatalf("PC = $%04X, want $8001 (IRQ still masked)", c.PC)
	}

	c.I = false
	cycles, err = c.Step()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cycles != 7 {
		t.Fatalf("unmasked IRQ service cycles = %d, want 7", cycles)
	}
	if c.PC != 0x9100 {
		t.Fatalf("PC after IRQ = $%04X, want $9100", c.PC)
	}
}

func TestGetSetStatusByte_RoundTrip(t *testing.T) {
	c, _ := newTestCPU(0x8000)
	c.C, c.Z, c.I, c.D, c.V, c.N = true, true, false, true, true, false

	status := c.GetStatusByte()
	if status&unusedMask == 0 {
		t.Fatal("status byte should always have the unused bit set")
	}

	var d2 CPU
	d2.SetStatusByte(status)
	if d2.C != c.C || d2.Z != c.Z || d2.I != c.I || d2.D != c.D || d2.V != c.V || d2.N != c.N {
		t.Fatalf("SetStatusByte round trip mismatch: got %+v from status 0x%02X", d2, status)
	}
}
