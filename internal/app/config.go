// Package app wires the core emulation packages into a runnable program:
// configuration, ROM loading, and an Ebitengine-driven frame pump.
package app

import (
	"encoding/json"
	"fmt"
	"os"
)

// KeyMapping maps NES controller buttons to Ebitengine key names, as
// understood by ParseKeyName in keys.go.
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// Config holds the settings the host application needs: window scale, key
// bindings for both controllers, and the ROM to load on startup.
type Config struct {
	WindowScale int        `json:"window_scale"`
	Fullscreen  bool       `json:"fullscreen"`
	Player1Keys KeyMapping `json:"player1_keys"`
	Player2Keys KeyMapping `json:"player2_keys"`
	ROMPath     string     `json:"rom_path"`
}

// DefaultConfig returns the configuration used when no config file is
// given or found: a 3x window and WASD+JK for player 1, arrow keys+NM for
// player 2.
func DefaultConfig() *Config {
	return &Config{
		WindowScale: 3,
		Fullscreen:  false,
		Player1Keys: KeyMapping{
			Up: "W", Down: "S", Left: "A", Right: "D",
			A: "J", B: "K", Start: "Enter", Select: "Space",
		},
		Player2Keys: KeyMapping{
			Up: "Up", Down: "Down", Left: "Left", Right: "Right",
			A: "N", B: "M", Start: "RightShift", Select: "RightControl",
		},
	}
}

// LoadConfig reads a JSON config file at path and overlays it onto
// DefaultConfig. A missing file is not an error: the defaults are
// returned as-is.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("app: reading config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("app: parsing config %s: %w", path, err)
	}
	if config.WindowScale <= 0 {
		config.WindowScale = 1
	}
	return config, nil
}
