package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

const (
	lineHeight = 14
	charWidth  = 6 // debug font glyph advance
	romListY   = 40
)

var keyHelp = []string{
	"Keypad:  1 2 3 C   <-  1 2 3 4",
	"         4 5 6 D   <-  Q W E R",
	"         7 8 9 E   <-  A S D F",
	"         A 0 B F   <-  Z X C V",
	"P: Pause",
	"N: Step frame (when paused)",
	"Tab: Fast-forward",
	"M: Mute",
	"F1: Menu",
	"F2: Reset",
	"F11: Fullscreen",
	"F12: Screenshot",
	"Esc: Quit",
}

func (a *App) drawMenu(screen *ebiten.Image) {
	switch a.menuMode {
	case "rom":
		a.drawRomMenu(screen)
	case "settings":
		a.drawSettingsMenu(screen)
	case "keys":
		a.drawKeysMenu(screen)
	default:
		a.drawMainMenu(screen)
	}
}

func (a *App) drawMainMenu(screen *ebiten.Image) {
	lines := []string{
		"Menu:",
		"Resume",
		"Reset",
		"Load ROM",
		"Settings",
		"Keybindings",
		"Quit",
	}
	ebitenutil.DebugPrintAt(screen, lines[0], 10, 10)
	for i, s := range lines[1:] {
		a.printItem(screen, s, i == a.menuIdx, 10+(i+1)*lineHeight)
	}
}

func (a *App) printItem(screen *ebiten.Image, s string, selected bool, y int) {
	prefix := "  "
	if selected {
		prefix = "> "
	}
	ebitenutil.DebugPrintAt(screen, a.truncateText(prefix+s, a.maxCharsForText(10)), 10, y)
}

func (a *App) drawRomMenu(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, "Select ROM (Enter: load, Esc: back)", 10, 10)
	ebitenutil.DebugPrintAt(screen, a.truncateText("Dir: "+a.cfg.ROMsDir, a.maxCharsForText(10)), 10, 24)
	if len(a.romList) == 0 {
		ebitenutil.DebugPrintAt(screen, "No ROMs found", 10, romListY)
		return
	}
	maxRows := a.visibleRows(romListY)
	end := min(a.romOff+maxRows, len(a.romList))
	for i, p := range a.romList[a.romOff:end] {
		a.printItem(screen, filepath.Base(p), a.romOff+i == a.romSel, romListY+i*lineHeight)
	}
	// scroll indicators
	if a.romOff > 0 {
		ebitenutil.DebugPrintAt(screen, "^", 2, romListY)
	}
	if end < len(a.romList) {
		ebitenutil.DebugPrintAt(screen, "v", 2, romListY+(maxRows-1)*lineHeight)
	}
}

func (a *App) drawKeysMenu(screen *ebiten.Image) {
	cursorY := 10
	for _, w := range a.wrapText("Keybindings (Up/Down: scroll, Esc: back)", a.maxCharsForText(10)) {
		ebitenutil.DebugPrintAt(screen, w, 10, cursorY)
		cursorY += lineHeight
	}
	baseY := cursorY + 4
	end := min(a.keysOff+a.visibleRows(baseY), len(keyHelp))
	for i := a.keysOff; i < end; i++ {
		ebitenutil.DebugPrintAt(screen, a.truncateText(keyHelp[i], a.maxCharsForText(10)), 10, baseY+(i-a.keysOff)*lineHeight)
	}
}

func (a *App) drawSettingsMenu(screen *ebiten.Image) {
	cursorY := 10
	for _, w := range a.wrapText("Settings (Left/Right: change, Esc: back)", a.maxCharsForText(10)) {
		ebitenutil.DebugPrintAt(screen, w, 10, cursorY)
		cursorY += lineHeight
	}
	items := []string{
		fmt.Sprintf("Scale: %dx", a.cfg.Scale),
		fmt.Sprintf("Speed: %d per frame", a.m.CyclesPerTick()),
		fmt.Sprintf("Sound: %s", map[bool]string{true: "Off", false: "On"}[a.cfg.Muted]),
		fmt.Sprintf("Palette: %s", a.cfg.Palette),
	}
	for i, s := range items {
		a.printItem(screen, s, i == a.menuIdx, cursorY+i*lineHeight)
	}
}

func (a *App) visibleRows(baseY int) int {
	return max(1, (a.curH-baseY)/lineHeight)
}

func (a *App) maxCharsForText(x int) int {
	return max(1, (a.curW-2*x)/charWidth)
}

func (a *App) truncateText(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return s[:maxChars]
	}
	return s[:maxChars-3] + "..."
}

// wrapText breaks s on spaces into lines of at most maxChars characters.
func (a *App) wrapText(s string, maxChars int) []string {
	var lines []string
	var cur strings.Builder
	for _, w := range strings.Fields(s) {
		if cur.Len() > 0 && cur.Len()+1+len(w) > maxChars {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
