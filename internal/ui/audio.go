package ui

import (
	"fmt"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/beep"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

// initAudio starts an endless player fed by the stereo beep stream. The
// tone is switched on and off from Update.
func (a *App) initAudio() error {
	a.tone = beep.NewTone(2)
	a.tone.SetMuted(a.cfg.Muted)

	a.audioCtx = audio.NewContext(beep.SampleRate)
	p, err := a.audioCtx.NewPlayer(a.tone)
	if err != nil {
		return fmt.Errorf("creating audio player: %w", err)
	}
	a.audioPlayer = p
	a.applyPlayerBufferSize()
	a.audioPlayer.Play()
	return nil
}

// applyPlayerBufferSize keeps the player buffer small so the beep starts
// and stops close to the timer edge.
func (a *App) applyPlayerBufferSize() {
	if a.audioPlayer == nil {
		return
	}
	a.audioPlayer.SetBufferSize(time.Duration(a.cfg.AudioBufferMs) * time.Millisecond)
}

func (a *App) toggleMute() {
	a.cfg.Muted = !a.cfg.Muted
	if a.tone != nil {
		a.tone.SetMuted(a.cfg.Muted)
	}
	if a.cfg.Muted {
		a.toast("Sound off")
	} else {
		a.toast("Sound on")
	}
}

func (a *App) closeAudio() {
	if a.audioPlayer != nil {
		_ = a.audioPlayer.Close()
		a.audioPlayer = nil
	}
}
