package termui

import (
	"fmt"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/beep"
	"github.com/ebitengine/oto/v3"
)

// otoBeeper plays a mono beep.Tone through the system audio device.
type otoBeeper struct {
	ctx    *oto.Context
	player *oto.Player
}

func newOtoBeeper(tone *beep.Tone, buffer time.Duration) (*otoBeeper, error) {
	op := &oto.NewContextOptions{
		SampleRate:   beep.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   buffer,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("creating audio context: %w", err)
	}
	<-ready

	b := &otoBeeper{ctx: ctx, player: ctx.NewPlayer(tone)}
	b.player.Play()
	return b, nil
}

func (b *otoBeeper) Close() {
	if b.player != nil {
		_ = b.player.Close()
		b.player = nil
	}
}
