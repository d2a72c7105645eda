// Package input implements NES controller handling: button state and the
// $4016/$4017 serial shift-register read/write protocol.
package input

// Button is one bit of an NES controller's 8-button state.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Controller is a single NES controller: a button bitmask and the shift
// register games read through $4016/$4017.
type Controller struct {
	buttons uint8

	shiftRegister uint8
	strobe        bool
}

// New creates a Controller with no buttons pressed.
func New() *Controller {
	return &Controller{}
}

// SetButton sets or clears a single button.
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons sets all eight buttons at once, in NES order: A, B, Select,
// Start, Up, Down, Left, Right.
func (c *Controller) SetButtons(buttons [8]bool) {
	c.buttons = 0
	for i, pressed := range buttons {
		if pressed {
			c.buttons |= 1 << uint(i)
		}
	}
}

// IsPressed reports whether button is currently held.
func (c *Controller) IsPressed(button Button) bool {
	return (c.buttons & uint8(button)) != 0
}

// Write handles a CPU write to the controller's strobe line. While strobe
// is high the shift register continuously reloads with the live button
// state; the falling edge latches it for serial reading.
func (c *Controller) Write(value uint8) {
	c.strobe = (value & 1) != 0
	if c.strobe {
		c.shiftRegister = c.buttons
	}
}

// Read shifts out the next button bit. Once all 8 buttons have been read,
// further reads return 1, matching hardware open-bus behavior.
func (c *Controller) Read() uint8 {
	if c.strobe {
		c.shiftRegister = c.buttons
	}
	result := c.shiftRegister & 1
	c.shiftRegister = (c.shiftRegister >> 1) | 0x80
	return result
}

// Reset clears button state and the shift register.
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
}

// InputState wraps both controller ports as the bus sees them at
// $4016/$4017.
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates an InputState with two fresh controllers.
func NewInputState() *InputState {
	return &InputState{Controller1: New(), Controller2: New()}
}

// Reset resets both controllers.
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// SetButtons1 sets all button states for controller 1.
func (is *InputState) SetButtons1(buttons [8]bool) {
	is.Controller1.SetButtons(buttons)
}

// SetButtons2 sets all button states for controller 2.
func (is *InputState) SetButtons2(buttons [8]bool) {
	is.Controller2.SetButtons(buttons)
}

// Read implements bus.InputPorts: $4016 reads controller 1, $4017 reads
// controller 2 with bit 6 forced high per NES open-bus behavior.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read() | 0x40
	default:
		return 0
	}
}

// Write implements bus.InputPorts: a $4016 write strobes both controllers.
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}
