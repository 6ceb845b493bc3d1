package ui

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/beep"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/retroenv/retrogolib/log"
)

const toastDuration = 2 * time.Second

type App struct {
	cfg    Config
	m      *emu.Machine
	logger *log.Logger
	tex    *ebiten.Image
	shade  *ebiten.Image
	paused bool
	fast   bool
	fault  error
	curW   int
	curH   int

	pal    display.Palette
	palIdx int

	tone        *beep.Tone
	audioCtx    *audio.Context
	audioPlayer *audio.Player

	// overlay/menu
	showMenu bool
	menuMode string // "main", "rom", "settings", "keys"
	menuIdx  int
	romList  []string
	romSel   int
	romOff   int
	keysOff  int

	toastMsg   string
	toastUntil time.Time
}

func NewApp(cfg Config, m *emu.Machine, logger *log.Logger) *App {
	cfg.Defaults()
	a := &App{cfg: cfg, m: m, logger: logger, menuMode: "main"}
	a.setPalette(cfg.Palette)
	a.applyWindowSize()
	a.updateTitle()
	return a
}

// Run opens the window and blocks until it is closed or the user quits.
func (a *App) Run() error {
	if err := a.initAudio(); err != nil {
		a.logger.Error("Audio disabled", log.Err(err))
	}
	defer a.closeAudio()

	err := ebiten.RunGame(a)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Fault returns the error that halted the machine during this session.
func (a *App) Fault() error { return a.fault }

func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if !a.showMenu {
			return ebiten.Termination
		}
		if a.menuMode == "main" {
			a.showMenu = false
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		a.showMenu = !a.showMenu
		a.menuMode = "main"
		a.menuIdx = 0
	}
	if a.showMenu {
		a.tone.SetActive(false)
		return a.updateMenu()
	}

	a.m.SetKeys(pollKeypad())

	// Pause toggle (P)
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	// Fast-forward (Tab): while held, run multiple frames per Ebiten update
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)

	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		a.reset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		a.toggleMute()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if path, err := a.saveScreenshot(); err != nil {
			a.toast("Screenshot failed: " + err.Error())
		} else {
			a.toast("Saved " + path)
		}
	}

	// Frame-step when paused (N)
	if a.paused && inpututil.IsKeyJustPressed(ebiten.KeyN) {
		a.stepFrames(1)
	}
	if !a.paused {
		if a.fast {
			a.stepFrames(5)
		} else {
			a.stepFrames(1)
		}
	}

	a.tone.SetActive(!a.paused && a.m.SoundActive())
	return nil
}

func (a *App) stepFrames(n int) {
	if a.fault != nil {
		return
	}
	for i := 0; i < n; i++ {
		if err := a.m.StepFrame(); err != nil {
			a.fault = err
			a.logger.Error("Emulation halted", log.Err(err))
			return
		}
	}
}

func (a *App) reset() {
	if err := a.m.Reset(); err != nil {
		a.logger.Error("Reset failed", log.Err(err))
		a.toast("Reset failed: " + err.Error())
		return
	}
	a.fault = nil
	a.paused = false
	a.toast("Reset")
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(display.Width, display.Height)
		a.tex.WritePixels(a.m.Framebuffer())
	} else if a.m.FrameReady() {
		a.tex.WritePixels(a.m.Framebuffer())
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(a.cfg.Scale), float64(a.cfg.Scale))
	screen.DrawImage(a.tex, op)

	switch {
	case a.showMenu:
		a.drawShade(screen)
		a.drawMenu(screen)
	case a.fault != nil:
		lines := a.wrapText("HALTED: "+a.fault.Error(), a.maxCharsForText(4))
		lines = append(lines, "F2: Reset  F1: Menu  Esc: Quit")
		for i, s := range lines {
			ebitenutil.DebugPrintAt(screen, s, 4, 4+i*14)
		}
	case a.paused:
		ebitenutil.DebugPrintAt(screen, "PAUSED", 4, 4)
	}

	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.truncateText(a.toastMsg, a.maxCharsForText(4)), 4, a.curH-18)
	}
}

// drawShade darkens the game view behind the menu.
func (a *App) drawShade(screen *ebiten.Image) {
	if a.shade == nil {
		a.shade = ebiten.NewImage(1, 1)
		a.shade.Fill(color.RGBA{0, 0, 0, 200})
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(a.curW), float64(a.curH))
	screen.DrawImage(a.shade, op)
}

func (a *App) Layout(outW, outH int) (int, int) {
	a.curW = display.Width * a.cfg.Scale
	a.curH = display.Height * a.cfg.Scale
	return a.curW, a.curH
}

func (a *App) applyWindowSize() {
	ebiten.SetWindowSize(display.Width*a.cfg.Scale, display.Height*a.cfg.Scale)
}

func (a *App) updateTitle() {
	title := a.cfg.Title
	if p := a.m.ROMPath(); p != "" {
		title = a.cfg.Title + " - [" + filepath.Base(p) + "]"
	}
	ebiten.SetWindowTitle(title)
}

func (a *App) setPalette(name string) {
	for i, p := range display.Palettes {
		if p.Name == name {
			a.palIdx = i
			a.pal = p.Palette
			a.cfg.Palette = name
			a.m.SetPalette(a.pal)
			a.tex = nil
			return
		}
	}
	a.setPalette(display.Palettes[0].Name)
}

func (a *App) cyclePalette(delta int) {
	n := len(display.Palettes)
	a.setPalette(display.Palettes[(a.palIdx+delta+n)%n].Name)
}

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(toastDuration)
}

func (a *App) saveScreenshot() (string, error) {
	ts := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("screenshot_%s.png", ts)
	f, err := os.Create(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := a.m.Display().WritePNG(f, a.pal, a.cfg.Scale); err != nil {
		return "", err
	}
	return name, nil
}
