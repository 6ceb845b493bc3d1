package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/retroenv/retrogolib/log"
)

const (
	mainResume = iota
	mainReset
	mainROM
	mainSettings
	mainKeys
	mainQuit
	mainItems
)

const (
	setScale = iota
	setSpeed
	setSound
	setPalette
	setItems
)

var romExtensions = map[string]bool{".ch8": true, ".c8": true, ".rom": true}

func (a *App) updateMenu() error {
	switch a.menuMode {
	case "rom":
		a.updateRomMenu()
	case "settings":
		a.updateSettingsMenu()
	case "keys":
		a.updateKeysMenu()
	default:
		return a.updateMainMenu()
	}
	return nil
}

func back() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace)
}

func (a *App) updateMainMenu() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < mainItems-1 {
		a.menuIdx++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		switch a.menuIdx {
		case mainResume:
			a.showMenu = false
		case mainReset:
			a.reset()
			a.showMenu = false
		case mainROM:
			a.romList = a.findROMs()
			a.romSel = 0
			a.romOff = 0
			a.menuMode = "rom"
		case mainSettings:
			a.menuMode = "settings"
			a.menuIdx = 0
		case mainKeys:
			a.menuMode = "keys"
			a.keysOff = 0
		case mainQuit:
			return ebiten.Termination
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.showMenu = false
	}
	return nil
}

func (a *App) toMain(idx int) {
	a.menuMode = "main"
	a.menuIdx = idx
}

func (a *App) updateRomMenu() {
	n := len(a.romList)
	if n == 0 {
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || back() {
			a.toMain(mainROM)
		}
		return
	}
	// compute window to maintain selection visibility
	maxRows := a.visibleRows(romListY)
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.romSel > 0 {
		a.romSel--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.romSel < n-1 {
		a.romSel++
	}
	if a.romSel < a.romOff {
		a.romOff = a.romSel
	}
	if a.romSel >= a.romOff+maxRows {
		a.romOff = a.romSel - maxRows + 1
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		path := a.romList[a.romSel]
		if err := a.m.LoadROMFromFile(path); err != nil {
			a.logger.Error("Loading ROM failed", log.String("path", path), log.Err(err))
			a.toast("ROM load failed: " + err.Error())
			a.toMain(mainROM)
			return
		}
		a.logger.Info("ROM loaded", log.String("path", path))
		a.fault = nil
		a.paused = false
		a.updateTitle()
		a.toast("Loaded ROM: " + filepath.Base(path))
		a.showMenu = false
		a.toMain(mainResume)
		return
	}
	if back() {
		a.toMain(mainROM)
	}
}

func (a *App) updateKeysMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.keysOff > 0 {
		a.keysOff--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.keysOff < len(keyHelp)-1 {
		a.keysOff++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || back() {
		a.toMain(mainKeys)
	}
}

func (a *App) updateSettingsMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < setItems-1 {
		a.menuIdx++
	}
	delta := 0
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		delta = -1
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		delta = 1
	}

	if delta != 0 {
		switch a.menuIdx {
		case setScale:
			if s := a.cfg.Scale + delta; s >= 4 && s <= 20 {
				a.cfg.Scale = s
				a.applyWindowSize()
			}
		case setSpeed:
			step := 1
			if ebiten.IsKeyPressed(ebiten.KeyShift) {
				step = 10
			}
			a.m.SetCyclesPerTick(a.m.CyclesPerTick() + delta*step)
			a.toast(fmt.Sprintf("%d instructions per second", a.m.CyclesPerTick()*60))
		case setSound:
			a.toggleMute()
		case setPalette:
			a.cyclePalette(delta)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || back() {
		a.toMain(mainSettings)
	}
}

// findROMs lists program images in the configured directory, sorted by name.
func (a *App) findROMs() []string {
	entries, err := os.ReadDir(a.cfg.ROMsDir)
	if err != nil {
		a.logger.Debug("Reading ROM directory failed", log.String("dir", a.cfg.ROMsDir), log.Err(err))
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !romExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		out = append(out, filepath.Join(a.cfg.ROMsDir, e.Name()))
	}
	return out
}
