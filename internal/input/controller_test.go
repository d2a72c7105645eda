package input

import "testing"

func TestController_StrobeAndShiftOrder(t *testing.T) {
	c := New()
	c.SetButtons([8]bool{true, false, true, false, false, false, false, true})

	c.Write(1) // strobe high, continuously reloads
	c.Write(0) // strobe low, latch for serial read

	want := []uint8{1, 0, 1, 0, 0, 0, 0, 1}
	for i, w := range want {
		if got := c.Read(); got != w {
			t.Fatalf("bit %d = %d, want %d", i, got, w)
		}
	}
	// After 8 reads, further reads return 1 (open-bus behavior).
	if got := c.Read(); got != 1 {
		t.Fatalf("read past 8th bit = %d, want 1", got)
	}
}

func TestController_StrobeHighKeepsReloading(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.Write(1) // strobe held high

	for i := 0; i < 3; i++ {
		if got := c.Read(); got != 1 {
			t.Fatalf("read %d while strobed = %d, want 1 (A always on top)", i, got)
		}
	}
}

func TestController_Reset(t *testing.T) {
	c := New()
	c.SetButtons([8]bool{true, true, true, true, true, true, true, true})
	c.Write(1)
	c.Reset()

	if c.IsPressed(ButtonA) {
		t.Fatal("IsPressed(ButtonA) true after Reset")
	}
	if got := c.Read(); got != 0 {
		t.Fatalf("Read after Reset = %d, want 0", got)
	}
}

func TestInputState_Read4017ForcesBit6High(t *testing.T) {
	is := NewInputState()
	is.SetButtons2([8]bool{})

	got := is.Read(0x4017)
	if got&0x40 == 0 {
		t.Fatalf("$4017 read = 0x%02X, want bit 6 set", got)
	}
}

func TestInputState_WriteStrobesBothControllers(t *testing.T) {
	is := NewInputState()
	is.SetButtons1([8]bool{true})
	is.SetButtons2([8]bool{true})

	is.Write(0x4016, 1)
	is.Write(0x4016, 0)

	if got := is.Controller1.Read(); got != 1 {
		t.Fatalf("controller1 first bit = %d, want 1", got)
	}
	if got := is.Controller2.Read() & 1; got != 1 {
		t.Fatalf("controller2 first bit = %d, want 1", got)
	}
}
