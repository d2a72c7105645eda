package app

import (
	"github.com/golang/glog"
	"github.com/hajimehoshi/ebiten/v2"
)

const (
	screenWidth  = 256
	screenHeight = 240
)

// Game drives an Emulator from Ebitengine's update/draw loop: Update runs
// one NES frame per tick after sampling both controllers' keys, and Draw
// blits the resulting RGBA buffer to the screen image.
type Game struct {
	emulator *Emulator
	config   *Config

	player1Keys controllerKeys
	player2Keys controllerKeys

	screen *ebiten.Image
}

// NewGame builds a Game around an already-loaded Emulator.
func NewGame(emulator *Emulator, config *Config) *Game {
	return &Game{
		emulator:    emulator,
		config:      config,
		player1Keys: resolveKeys(config.Player1Keys),
		player2Keys: resolveKeys(config.Player2Keys),
		screen:      ebiten.NewImage(screenWidth, screenHeight),
	}
}

// Update samples both controllers and advances emulation by one frame.
func (g *Game) Update() error {
	g.emulator.SetButtons1(pollButtons(g.player1Keys))
	g.emulator.SetButtons2(pollButtons(g.player2Keys))

	if _, err := g.emulator.RunFrame(); err != nil {
		glog.Errorf("app: frame %d: %v", g.emulator.GetFrameCount(), err)
		return err
	}
	return nil
}

// pollButtons reads the pressed state of the eight keys bound to one
// controller, in NES button order: A, B, Select, Start, Up, Down, Left,
// Right.
func pollButtons(keys controllerKeys) [8]bool {
	var buttons [8]bool
	for i, key := range keys {
		buttons[i] = ebiten.IsKeyPressed(key)
	}
	return buttons
}

// Draw copies the emulator's current frame buffer onto the screen image.
func (g *Game) Draw(screen *ebiten.Image) {
	frame := g.emulator.Frame()
	g.screen.WritePixels(frame.Pix)
	screen.DrawImage(g.screen, nil)
}

// Layout reports the fixed, unscaled NES resolution as the logical screen
// size; Ebitengine stretches it to the window, whose size main sets from the
// configured window scale.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}
