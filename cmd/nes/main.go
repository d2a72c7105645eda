// Command nes is a minimal NES emulator: load an iNES ROM and play it in an
// Ebitengine window.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/hajimehoshi/ebiten/v2"

	"gones/internal/app"
	"gones/internal/version"
)

func main() {
	romPath := flag.String("rom", "", "path to an iNES ROM file")
	configPath := flag.String("config", "", "path to a JSON config file")
	scale := flag.Int("scale", 0, "window scale factor (overrides config)")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()
	defer glog.Flush()

	if *showVersion {
		fmt.Println(version.GetDetailedVersion())
		return
	}

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		glog.Exitf("nes: %v", err)
	}
	if *scale > 0 {
		config.WindowScale = *scale
	}

	if *romPath == "" {
		*romPath = config.ROMPath
	}
	if *romPath == "" {
		fmt.Fprintln(os.Stderr, "nes: no ROM given: use -rom or rom_path in the config")
		flag.Usage()
		os.Exit(1)
	}

	emulator := app.NewEmulator()
	if err := emulator.LoadROM(*romPath); err != nil {
		glog.Exitf("nes: %v", err)
	}

	game := app.NewGame(emulator, config)

	ebiten.SetWindowSize(256*config.WindowScale, 240*config.WindowScale)
	ebiten.SetWindowTitle(fmt.Sprintf("nes - %s", *romPath))
	ebiten.SetFullscreen(config.Fullscreen)

	if err := ebiten.RunGame(game); err != nil {
		glog.Exitf("nes: %v", err)
	}
}
