package app

import (
	"image"
	"time"

	"github.com/golang/glog"

	"gones/internal/apu"
	"gones/internal/bus"
	"gones/internal/cartridge"
	"gones/internal/clock"
	"gones/internal/cpu"
	"gones/internal/input"
	"gones/internal/ppu"
)

// Emulator owns one loaded cartridge's worth of CPU/PPU/Bus/Clock state
// and exposes the frame-at-a-time API the host's game loop drives.
type Emulator struct {
	bus   *bus.Bus
	ppu   *ppu.PPU
	cpu   *cpu.CPU
	apu   *apu.APU
	input *input.InputState
	clock *clock.Clock

	cart *cartridge.Cartridge

	startTime  time.Time
	frameCount uint64
}

// NewEmulator builds the CPU/PPU/Bus/Clock graph with no cartridge loaded.
// Call LoadROM before RunFrame.
func NewEmulator() *Emulator {
	inputState := input.NewInputState()
	audio := apu.New()

	b := bus.New(nil, audio, inputState)
	p := ppu.New(b)
	b.SetPPU(p)
	c := cpu.New(b)

	e := &Emulator{
		bus:       b,
		ppu:       p,
		cpu:       c,
		apu:       audio,
		input:     inputState,
		startTime: time.Now(),
	}
	e.clock = clock.New(c, p, b)
	return e
}

// LoadROM parses romPath as an iNES image, attaches it to the bus, and
// resets the system.
func (e *Emulator) LoadROM(romPath string) error {
	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return err
	}
	e.cart = cart
	e.bus.LoadCartridge(cart)
	e.Reset()
	glog.V(1).Infof("app: loaded ROM %s", romPath)
	return nil
}

// Reset resets CPU, PPU, APU, and controller state.
func (e *Emulator) Reset() {
	e.clock.Reset()
	e.apu.Reset()
	e.input.Reset()
	e.frameCount = 0
	e.startTime = time.Now()
}

// RunFrame advances emulation by one full PPU frame and returns its RGBA
// frame buffer.
func (e *Emulator) RunFrame() (*image.RGBA, error) {
	frame, err := e.clock.RunFrame()
	if err != nil {
		return nil, err
	}
	e.frameCount++
	return frame, nil
}

// Frame returns the most recently completed frame buffer without advancing
// emulation.
func (e *Emulator) Frame() *image.RGBA {
	return e.ppu.FrameBuffer()
}

// SetButtons1 sets all eight button states for controller 1.
func (e *Emulator) SetButtons1(buttons [8]bool) {
	e.input.SetButtons1(buttons)
}

// SetButtons2 sets all eight button states for controller 2.
func (e *Emulator) SetButtons2(buttons [8]bool) {
	e.input.SetButtons2(buttons)
}

// GetFrameCount returns the number of frames rendered since the last Reset.
func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

// GetUptime returns how long the emulator has been running since the last
// Reset.
func (e *Emulator) GetUptime() time.Duration {
	return time.Since(e.startTime)
}

// GetFPS returns the average frames-per-second achieved since the last
// Reset.
func (e *Emulator) GetFPS() float64 {
	uptime := e.GetUptime().Seconds()
	if uptime <= 0 {
		return 0
	}
	return float64(e.frameCount) / uptime
}

// ROMLoaded reports whether a cartridge is currently attached.
func (e *Emulator) ROMLoaded() bool {
	return e.cart != nil
}
