package session

import (
	"time"
)

// Clock reconstructs elapsed playback time from wall-clock deltas. The
// external player exposes no position query, so this is the only source of
// the elapsed estimate; drift versus the real audio position is an accepted
// approximation.
type Clock struct {
	now        func() time.Time
	playing    bool
	startedAt  time.Time     // start of the current playing interval, offset-adjusted
	checkpoint time.Duration // durable elapsed value while not playing
}

// NewClock creates a clock with the given initial checkpoint.
func NewClock(checkpoint time.Duration) *Clock {
	if checkpoint < 0 {
		checkpoint = 0
	}
	return &Clock{
		now:        time.Now,
		checkpoint: checkpoint,
	}
}

// Start begins a playing interval at the given elapsed offset. Resuming
// from a checkpoint passes the checkpoint; starting fresh passes 0.
func (c *Clock) Start(offset time.Duration) {
	if offset < 0 {
		offset = 0
	}
	c.startedAt = c.now().Add(-offset)
	c.checkpoint = offset
	c.playing = true
}

// Pause ends the current playing interval, folding it into the checkpoint.
// No-op when already paused.
func (c *Clock) Pause() {
	if !c.playing {
		return
	}
	c.checkpoint = c.now().Sub(c.startedAt)
	c.playing = false
}

// Stop resets the checkpoint to zero. Unlike Pause it discards the elapsed
// position entirely. Safe to call in any state.
func (c *Clock) Stop() {
	c.checkpoint = 0
	c.playing = false
}

// Elapsed returns the live elapsed estimate: checkpoint plus the current
// interval while playing, the checkpoint alone otherwise.
func (c *Clock) Elapsed() time.Duration {
	if c.playing {
		return c.now().Sub(c.startedAt)
	}
	return c.checkpoint
}

// Checkpoint returns the durable elapsed value as of the last pause, stop
// or start. While playing it does not advance; a crash loses only the
// in-flight interval beyond it.
func (c *Clock) Checkpoint() time.Duration {
	return c.checkpoint
}

// Playing reports whether a playing interval is open.
func (c *Clock) Playing() bool {
	return c.playing
}
