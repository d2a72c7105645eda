package apu

import "testing"

func TestReadStatus_AlwaysZero(t *testing.T) {
	a := New()
	a.WriteRegister(0x4000, 0xFF)
	a.WriteRegister(0x4015, 0xFF)

	if got := a.ReadStatus(); got != 0 {
		t.Fatalf("ReadStatus() = 0x%02X, want 0", got)
	}
}

func TestWriteReadRegister_RoundTrip(t *testing.T) {
	a := New()
	a.WriteRegister(0x4000, 0x3F)

	if got := a.ReadRegister(0x4000); got != 0x3F {
		t.Fatalf("ReadRegister(0x4000) = 0x%02X, want 0x3F", got)
	}
}

func TestWriteRegister_OutOfRangeIgnored(t *testing.T) {
	a := New()
	a.WriteRegister(0x4018, 0xFF) // one past $4017

	if got := a.ReadRegister(0x4018); got != 0 {
		t.Fatalf("ReadRegister(0x4018) = 0x%02X, want 0 (ignored)", got)
	}
}

func TestWriteRegister_4017ResetsFrameSequenceStep(t *testing.T) {
	a := New()
	a.frameSequenceStep = 3
	a.WriteRegister(0x4017, 0x00)

	if a.frameSequenceStep != 0 {
		t.Fatalf("frameSequenceStep = %d, want 0 after writing $4017", a.frameSequenceStep)
	}
}

func TestReset_ClearsRegisters(t *testing.T) {
	a := New()
	a.WriteRegister(0x4000, 0xAB)
	a.Reset()

	if got := a.ReadRegister(0x4000); got != 0 {
		t.Fatalf("ReadRegister(0x4000) after Reset = 0x%02X, want 0", got)
	}
}
