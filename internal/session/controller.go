// Package session owns the playback session state and its transition
// algebra. All mutations flow through the Controller, which mirrors the
// external player's assumed state, reconstructs elapsed time from wall
// clock deltas, and persists a snapshot after every mutation.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rkstudio585/mediactl/internal/history"
	"github.com/rkstudio585/mediactl/internal/metadata"
	"github.com/rkstudio585/mediactl/internal/notify"
	"github.com/rkstudio585/mediactl/internal/player"
	"github.com/rkstudio585/mediactl/internal/playlist"
	"github.com/rkstudio585/mediactl/internal/state"
	"github.com/rkstudio585/mediactl/pkg/genius"
)

var (
	// ErrNoMediaSelected is returned when play is requested with no file,
	// no playlist selection and no previous track.
	ErrNoMediaSelected = errors.New("session: no media selected")

	// ErrFileNotFound is returned when the resolved media file does not
	// exist on disk.
	ErrFileNotFound = errors.New("session: file not found")
)

// LyricsFetcher fetches lyric lines for a track. The genius client
// satisfies this; tests substitute fakes.
type LyricsFetcher interface {
	FetchLines(ctx context.Context, artist, title string) ([]string, error)
}

// Deps are the collaborators a Controller drives. History and Lyrics are
// optional.
type Deps struct {
	Store    state.Store
	Player   player.Player
	Metadata metadata.Provider
	Notifier notify.Notifier
	Lyrics   LyricsFetcher
	History  *history.Store
	Logger   zerolog.Logger
}

// Controller is the single owner of the session state. Operations run to
// completion under one mutex, so a concurrent snapshot never observes a
// partial mutation.
type Controller struct {
	mu sync.Mutex

	store    state.Store
	player   player.Player
	metaProv metadata.Provider
	notifier notify.Notifier
	lyrics   LyricsFetcher
	history  *history.Store
	logger   zerolog.Logger

	clock       *Clock
	nav         *playlist.Navigator
	currentFile string
	volume      int
	repeat      bool
	shuffle     bool
	meta        metadata.Metadata

	playID int64 // history row for the current play, 0 if none
}

// Snapshot is an immutable presentation view of the session for rendering.
type Snapshot struct {
	CurrentFile string
	Playing     bool
	Volume      int
	RepeatMode  bool
	ShuffleMode bool
	Title       string
	Artist      string
	Album       string
	Elapsed     time.Duration
	Total       time.Duration
	PlaylistLen int
	TrackIndex  int
}

// New restores a Controller from the persisted snapshot, or from defaults
// when none exists.
func New(deps Deps) *Controller {
	snap := deps.Store.Load()

	c := &Controller{
		store:       deps.Store,
		player:      deps.Player,
		metaProv:    deps.Metadata,
		notifier:    deps.Notifier,
		lyrics:      deps.Lyrics,
		history:     deps.History,
		logger:      deps.Logger.With().Str("component", "session").Logger(),
		clock:       NewClock(snap.LastPosition),
		nav:         playlist.NewNavigator(snap.Playlist, snap.CurrentTrackIndex),
		currentFile: snap.CurrentFile,
		volume:      snap.Volume,
		repeat:      snap.RepeatMode,
		shuffle:     snap.ShuffleMode,
	}

	// Metadata for the restored track is available before playback starts,
	// so lyrics lookup and rendering work on a resumed session.
	if c.currentFile != "" {
		c.meta = c.metaProv.Load(context.Background(), c.currentFile)
	}

	return c
}

// Play starts or resumes playback. With an explicit path the track index is
// cleared and the checkpoint reset to zero; without one the playlist
// selection or the previous current file is resumed from its checkpoint.
func (c *Controller) Play(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		c.currentFile = abs
		c.nav.Index = -1
		c.closePlay()
		return c.startCurrent(0)
	}

	if sel, ok := c.nav.Current(); ok {
		c.currentFile = sel
		return c.startCurrent(c.clock.Checkpoint())
	}

	if c.currentFile == "" {
		return ErrNoMediaSelected
	}

	return c.startCurrent(c.clock.Checkpoint())
}

// Pause pauses playback, checkpointing the elapsed interval. No-op when
// not playing.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.clock.Playing() {
		return nil
	}

	err := c.player.Pause(context.Background())
	c.clock.Pause()
	c.flushPlayed()
	c.notifier.Notify("Paused", c.meta.Title)
	c.persist()
	return err
}

// Stop stops playback and resets the checkpoint to zero. Idempotent.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop()
}

// stop is the lock-held implementation shared with exhaustion handling.
func (c *Controller) stop() error {
	wasPlaying := c.clock.Playing()

	err := c.player.Stop(context.Background())
	if wasPlaying {
		c.clock.Pause()
	}
	c.closePlay()
	c.clock.Stop()
	if wasPlaying {
		c.notifier.Notify("Stopped", c.meta.Title)
	}
	c.persist()
	return err
}

// NextTrack advances the playlist and plays the selected track from the
// beginning. On exhaustion playback is stopped and playlist.ErrExhausted
// returned for the caller to report.
func (c *Controller) NextTrack() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.nav.Advance(c.repeat)
	if err != nil {
		if errors.Is(err, playlist.ErrExhausted) {
			c.logger.Info().Msg("Playlist finished")
			if stopErr := c.stop(); stopErr != nil {
				c.logger.Warn().Err(stopErr).Msg("Stop after exhaustion failed")
			}
		}
		return err
	}

	c.currentFile = c.nav.Tracks[idx]
	c.closePlay()
	return c.startCurrent(0)
}

// PrevTrack retreats the playlist, wrapping from the first track to the
// last, and plays the selected track from the beginning.
func (c *Controller) PrevTrack() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.nav.Retreat()
	if err != nil {
		return err
	}

	c.currentFile = c.nav.Tracks[idx]
	c.closePlay()
	return c.startCurrent(0)
}

// SetVolume clamps level into [0,100], applies it to the external player
// and persists it.
func (c *Controller) SetVolume(level int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	c.volume = level

	err := c.player.SetVolume(context.Background(), level)
	c.persist()
	return err
}

// AdjustVolume changes the volume by delta, clamped into [0,100].
func (c *Controller) AdjustVolume(delta int) error {
	c.mu.Lock()
	level := c.volume + delta
	c.mu.Unlock()
	return c.SetVolume(level)
}

// ToggleRepeat flips repeat mode and returns the new value.
func (c *Controller) ToggleRepeat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.repeat = !c.repeat
	c.persist()
	return c.repeat
}

// ToggleShuffle flips shuffle mode and returns the new value. The mode is
// a flag only: sequential advance order is unchanged, and only the
// explicit ShufflePlaylist action permutes the playlist.
func (c *Controller) ToggleShuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shuffle = !c.shuffle
	c.persist()
	return c.shuffle
}

// ShufflePlaylist permutes the playlist and resets the selection to the
// first track.
func (c *Controller) ShufflePlaylist() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nav.Shuffle()
	c.persist()
}

// LoadPlaylist replaces the playlist with the contents of the given file.
// The selection moves to the first track, or clears when the file holds no
// tracks, in which case playlist.ErrEmpty is returned for reporting.
func (c *Controller) LoadPlaylist(path string) (int, error) {
	tracks, err := playlist.Load(path)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.nav.Tracks = tracks
	if len(tracks) > 0 {
		c.nav.Index = 0
	} else {
		c.nav.Index = -1
	}
	c.persist()

	if len(tracks) == 0 {
		return 0, playlist.ErrEmpty
	}
	return len(tracks), nil
}

// SavePlaylist writes the current playlist to the given file.
func (c *Controller) SavePlaylist(path string) error {
	c.mu.Lock()
	tracks := append([]string(nil), c.nav.Tracks...)
	c.mu.Unlock()

	return playlist.Save(path, tracks)
}

// Resume restarts playback of the persisted current file from its
// checkpoint. Returns ErrNoMediaSelected when there is no previous session.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentFile == "" {
		return ErrNoMediaSelected
	}
	return c.startCurrent(c.clock.Checkpoint())
}

// PlaybackInfo returns the elapsed estimate and the track duration,
// with elapsed clamped to [0, total] for presentation when the duration is
// known. Stored state is never mutated by the clamp.
func (c *Controller) PlaybackInfo() (elapsed, total time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed = c.clock.Elapsed()
	total = c.meta.Duration
	if elapsed < 0 {
		elapsed = 0
	}
	if total > 0 && elapsed > total {
		elapsed = total
	}
	return elapsed, total
}

// Snapshot returns a presentation copy of the session for rendering.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := c.clock.Elapsed()
	total := c.meta.Duration
	if total > 0 && elapsed > total {
		elapsed = total
	}

	return Snapshot{
		CurrentFile: c.currentFile,
		Playing:     c.clock.Playing(),
		Volume:      c.volume,
		RepeatMode:  c.repeat,
		ShuffleMode: c.shuffle,
		Title:       c.meta.Title,
		Artist:      c.meta.Artist,
		Album:       c.meta.Album,
		Elapsed:     elapsed,
		Total:       total,
		PlaylistLen: c.nav.Len(),
		TrackIndex:  c.nav.Index,
	}
}

// FetchLyrics fetches lyric lines for the current track. All failure modes
// collapse to a placeholder line sequence; the error is returned alongside
// for reporting and is never fatal.
func (c *Controller) FetchLyrics(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	artist, title := c.meta.Artist, c.meta.Title
	fetcher := c.lyrics
	c.mu.Unlock()

	if fetcher == nil {
		return []string{"Lyrics are not configured. Set a Genius API token."}, nil
	}
	if artist == "" || title == "" {
		return []string{"No metadata available for lyrics."}, nil
	}

	lines, err := fetcher.FetchLines(ctx, artist, title)
	if err != nil {
		if errors.Is(err, genius.ErrNoMatch) {
			return []string{fmt.Sprintf("No lyrics found for %s - %s.", artist, title)}, err
		}
		c.logger.Debug().Err(err).Msg("Lyrics fetch failed")
		return []string{"Error fetching lyrics."}, err
	}
	return lines, nil
}

// startCurrent launches the external player for the current file and opens
// a playing interval at the given offset. Must be called with the lock held.
func (c *Controller) startCurrent(offset time.Duration) error {
	if _, err := os.Stat(c.currentFile); err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, c.currentFile)
	}

	ctx := context.Background()
	if err := c.player.Play(ctx, c.currentFile); err != nil {
		return err
	}

	c.clock.Start(offset)
	c.meta = c.metaProv.Load(ctx, c.currentFile)

	c.logger.Info().
		Str("file", c.currentFile).
		Str("title", c.meta.Title).
		Dur("offset", offset).
		Msg("Playing")

	c.notifier.Notify("Playing", fmt.Sprintf("%s - %s", c.meta.Artist, c.meta.Title))
	c.recordPlay(ctx)
	c.persist()
	return nil
}

// recordPlay opens a history row for the current play if none is open.
// Must be called with the lock held.
func (c *Controller) recordPlay(ctx context.Context) {
	if c.history == nil || c.playID != 0 {
		return
	}

	id, err := c.history.Record(ctx, history.Play{
		Path:      c.currentFile,
		Title:     c.meta.Title,
		Artist:    c.meta.Artist,
		Album:     c.meta.Album,
		Duration:  c.meta.Duration,
		StartedAt: time.Now(),
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to record play history")
		return
	}
	c.playID = id
}

// flushPlayed writes the accumulated played time to the open history row.
// Must be called with the lock held.
func (c *Controller) flushPlayed() {
	if c.history == nil || c.playID == 0 {
		return
	}
	if err := c.history.UpdatePlayed(context.Background(), c.playID, c.clock.Elapsed()); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update play history")
	}
}

// closePlay flushes and closes the open history row ahead of a track
// change or stop. Must be called with the lock held.
func (c *Controller) closePlay() {
	c.flushPlayed()
	c.playID = 0
}

// persist saves the session snapshot. Save failures are logged, never
// surfaced: losing a checkpoint must not break playback. Must be called
// with the lock held.
func (c *Controller) persist() {
	snap := state.Snapshot{
		CurrentFile:       c.currentFile,
		LastPosition:      c.clock.Checkpoint(),
		Volume:            c.volume,
		Playlist:          c.nav.Tracks,
		CurrentTrackIndex: c.nav.Index,
		RepeatMode:        c.repeat,
		ShuffleMode:       c.shuffle,
	}
	if err := c.store.Save(snap); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to persist state")
	}
}
