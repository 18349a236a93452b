// Package player drives the external OS media player process. Commands are
// fire-and-forget: the only observable outcome is whether the launch was
// accepted. The player's real-world state is mirrored, never queried.
package player

import (
	"context"
	"errors"
)

// ErrInvocation is returned when the external player command cannot be
// launched at all. A launched command that never confirms completion is
// not an error.
var ErrInvocation = errors.New("player: failed to launch player command")

// Player defines the capability interface for the external media player.
type Player interface {
	// Play starts playback of the given file.
	Play(ctx context.Context, path string) error

	// Pause pauses playback.
	Pause(ctx context.Context) error

	// Stop stops playback.
	Stop(ctx context.Context) error

	// SetVolume sets the playback volume (0-100).
	SetVolume(ctx context.Context, level int) error
}
