package player

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog"
)

const (
	// DefaultPlayerCommand is the termux media player front-end.
	DefaultPlayerCommand = "termux-media-player"

	// DefaultVolumeCommand sets the music stream volume.
	DefaultVolumeCommand = "termux-volume"
)

// ExecPlayer implements Player by spawning the termux media player commands.
// Launched processes are detached immediately; the caller never waits for
// them to finish.
type ExecPlayer struct {
	playerCmd string
	volumeCmd string
	logger    zerolog.Logger
}

// NewExecPlayer creates an ExecPlayer. Empty command names fall back to the
// termux defaults.
func NewExecPlayer(playerCmd, volumeCmd string, logger zerolog.Logger) *ExecPlayer {
	if playerCmd == "" {
		playerCmd = DefaultPlayerCommand
	}
	if volumeCmd == "" {
		volumeCmd = DefaultVolumeCommand
	}
	return &ExecPlayer{
		playerCmd: playerCmd,
		volumeCmd: volumeCmd,
		logger:    logger.With().Str("component", "player").Logger(),
	}
}

// Play starts playback of the given file.
func (p *ExecPlayer) Play(ctx context.Context, path string) error {
	return p.launch(ctx, p.playerCmd, "play", path)
}

// Pause pauses playback.
func (p *ExecPlayer) Pause(ctx context.Context) error {
	return p.launch(ctx, p.playerCmd, "pause")
}

// Stop stops playback.
func (p *ExecPlayer) Stop(ctx context.Context) error {
	return p.launch(ctx, p.playerCmd, "stop")
}

// SetVolume sets the music stream volume.
func (p *ExecPlayer) SetVolume(ctx context.Context, level int) error {
	return p.launch(ctx, p.volumeCmd, "music", strconv.Itoa(level))
}

// launch starts a command without waiting for it to complete. Only a failed
// launch is reported; the child is reaped in the background.
func (p *ExecPlayer) launch(ctx context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		p.logger.Debug().Err(err).Str("command", name).Strs("args", args).Msg("Launch failed")
		return fmt.Errorf("%w: %s: %v", ErrInvocation, name, err)
	}

	p.logger.Debug().Str("command", name).Strs("args", args).Msg("Command launched")

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}
