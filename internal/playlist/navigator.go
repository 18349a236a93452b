// Package playlist provides ordered track navigation and the plain-text
// playlist file format.
package playlist

import (
	"errors"
	"math/rand"
)

var (
	// ErrEmpty is returned when an operation requires a non-empty playlist.
	ErrEmpty = errors.New("playlist: empty playlist")

	// ErrExhausted is returned by Advance when moving past the last track
	// with repeat disabled. The caller is expected to stop playback.
	ErrExhausted = errors.New("playlist: playlist finished")

	// ErrNotFound is returned when a playlist file does not exist.
	ErrNotFound = errors.New("playlist: file not found")
)

// Navigator holds the ordered playlist and the current selection.
// Index is -1 when no playlist-driven track is selected.
type Navigator struct {
	Tracks []string
	Index  int
}

// NewNavigator creates a navigator over tracks with the given selection.
func NewNavigator(tracks []string, index int) *Navigator {
	if index < -1 || index >= len(tracks) {
		index = -1
	}
	return &Navigator{Tracks: tracks, Index: index}
}

// Len returns the playlist length.
func (n *Navigator) Len() int {
	return len(n.Tracks)
}

// Current returns the selected track path, or false when nothing is selected.
func (n *Navigator) Current() (string, bool) {
	if n.Index < 0 || n.Index >= len(n.Tracks) {
		return "", false
	}
	return n.Tracks[n.Index], true
}

// Advance moves the selection to the next track. Wrapping past the last
// track returns ErrExhausted unless repeat is enabled, in which case the
// wrap to index 0 is silent. The index is left unchanged on error.
func (n *Navigator) Advance(repeat bool) (int, error) {
	if len(n.Tracks) == 0 {
		return -1, ErrEmpty
	}

	next := (n.Index + 1) % len(n.Tracks)
	if next == 0 && !repeat && n.Index == len(n.Tracks)-1 {
		return -1, ErrExhausted
	}

	n.Index = next
	return next, nil
}

// Retreat moves the selection to the previous track. It always wraps from
// the first track to the last, regardless of repeat mode.
func (n *Navigator) Retreat() (int, error) {
	if len(n.Tracks) == 0 {
		return -1, ErrEmpty
	}

	n.Index = (n.Index - 1 + len(n.Tracks)) % len(n.Tracks)
	return n.Index, nil
}

// Shuffle permutes the playlist in place and resets the selection to the
// first track. Every element is preserved exactly once.
func (n *Navigator) Shuffle() {
	rand.Shuffle(len(n.Tracks), func(i, j int) {
		n.Tracks[i], n.Tracks[j] = n.Tracks[j], n.Tracks[i]
	})
	if len(n.Tracks) > 0 {
		n.Index = 0
	}
}
