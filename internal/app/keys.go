package app

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// keyNames maps the config file's key names to Ebitengine key constants.
var keyNames = map[string]ebiten.Key{
	"W": ebiten.KeyW, "A": ebiten.KeyA, "S": ebiten.KeyS, "D": ebiten.KeyD,
	"J": ebiten.KeyJ, "K": ebiten.KeyK, "N": ebiten.KeyN, "M": ebiten.KeyM,
	"Up": ebiten.KeyArrowUp, "Down": ebiten.KeyArrowDown,
	"Left": ebiten.KeyArrowLeft, "Right": ebiten.KeyArrowRight,
	"Enter": ebiten.KeyEnter, "Space": ebiten.KeySpace,
	"RightShift": ebiten.KeyShiftRight, "RightControl": ebiten.KeyControlRight,
	"LeftShift": ebiten.KeyShiftLeft, "LeftControl": ebiten.KeyControlLeft,
}

// ParseKeyName resolves a config key name to an Ebitengine key constant.
func ParseKeyName(name string) (ebiten.Key, error) {
	key, ok := keyNames[name]
	if !ok {
		return 0, fmt.Errorf("app: unknown key name %q", name)
	}
	return key, nil
}

// controllerKeys is the eight Ebitengine keys bound to one NES controller,
// in NES button order: A, B, Select, Start, Up, Down, Left, Right.
type controllerKeys [8]ebiten.Key

// resolveKeys converts a KeyMapping into the eight-key array Update polls
// every tick. Unparseable key names fall back to a key nothing presses.
func resolveKeys(mapping KeyMapping) controllerKeys {
	names := [8]string{
		mapping.A, mapping.B, mapping.Select, mapping.Start,
		mapping.Up, mapping.Down, mapping.Left, mapping.Right,
	}
	var keys controllerKeys
	for i, name := range names {
		key, err := ParseKeyName(name)
		if err != nil {
			continue
		}
		keys[i] = key
	}
	return keys
}
