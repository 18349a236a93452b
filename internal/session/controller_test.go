package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rkstudio585/mediactl/internal/metadata"
	"github.com/rkstudio585/mediactl/internal/notify"
	"github.com/rkstudio585/mediactl/internal/playlist"
	"github.com/rkstudio585/mediactl/internal/state"
	"github.com/rkstudio585/mediactl/pkg/genius"
)

// fakePlayer records launched commands and can simulate launch failures.
type fakePlayer struct {
	calls   []string
	playErr error
}

func (p *fakePlayer) Play(ctx context.Context, path string) error {
	p.calls = append(p.calls, "play "+path)
	return p.playErr
}

func (p *fakePlayer) Pause(ctx context.Context) error {
	p.calls = append(p.calls, "pause")
	return nil
}

func (p *fakePlayer) Stop(ctx context.Context) error {
	p.calls = append(p.calls, "stop")
	return nil
}

func (p *fakePlayer) SetVolume(ctx context.Context, level int) error {
	p.calls = append(p.calls, "volume")
	return nil
}

func (p *fakePlayer) last() string {
	if len(p.calls) == 0 {
		return ""
	}
	return p.calls[len(p.calls)-1]
}

// fakeMetadata returns a fixed duration with fallback-style tags.
type fakeMetadata struct {
	duration time.Duration
}

func (m *fakeMetadata) Load(ctx context.Context, path string) metadata.Metadata {
	meta := metadata.Fallback(path)
	meta.Artist = "The Band"
	meta.Title = filepath.Base(path)
	meta.Duration = m.duration
	return meta
}

// fakeLyrics returns canned lines or an error.
type fakeLyrics struct {
	lines []string
	err   error
}

func (f *fakeLyrics) FetchLines(ctx context.Context, artist, title string) ([]string, error) {
	return f.lines, f.err
}

type testEnv struct {
	ctrl     *Controller
	player   *fakePlayer
	store    *state.MemStore
	now      *time.Time
	mediaDir string
}

// newTestEnv builds a controller over fake collaborators, a controllable
// clock source, and real media files in a temp dir.
func newTestEnv(t *testing.T, snap state.Snapshot) *testEnv {
	t.Helper()

	env := &testEnv{
		player:   &fakePlayer{},
		store:    state.NewMemStore(snap),
		mediaDir: t.TempDir(),
	}

	env.ctrl = New(Deps{
		Store:    env.store,
		Player:   env.player,
		Metadata: &fakeMetadata{duration: 3 * time.Minute},
		Notifier: notify.Nop{},
		Logger:   zerolog.Nop(),
	})

	current := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	env.now = &current
	env.ctrl.clock.now = func() time.Time { return current }

	return env
}

// track creates a media file and returns its absolute path.
func (e *testEnv) track(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.mediaDir, name)
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		t.Fatalf("write track: %v", err)
	}
	return path
}

func (e *testEnv) advance(d time.Duration) {
	*e.now = e.now.Add(d)
}

func TestPlay_ExplicitPathResetsSelection(t *testing.T) {
	env := newTestEnv(t, state.Snapshot{
		Volume:            50,
		LastPosition:      40 * time.Second,
		Playlist:          []string{"/x.mp3", "/y.mp3"},
		CurrentTrackIndex: 1,
	})
	path := env.track(t, "a.mp3")

	if err := env.ctrl.Play(path); err != nil {
		t.Fatalf("Play: %v", err)
	}

	snap := env.ctrl.Snapshot()
	if !snap.Playing {
		t.Error("expected playing")
	}
	if snap.TrackIndex != -1 {
		t.Errorf("TrackIndex = %d, want -1", snap.TrackIndex)
	}
	if snap.Elapsed != 0 {
		t.Errorf("Elapsed = %v, want 0 for a fresh file", snap.Elapsed)
	}
	if env.player.last() != "play "+path {
		t.Errorf("player call = %q", env.player.last())
	}
	if env.store.Saves == 0 {
		t.Error("state was not persisted")
	}
}

func TestPlay_NoMediaSelected(t *testing.T) {
	env := newTestEnv(t, state.Defaults())

	err := env.ctrl.Play("")
	if !errors.Is(err, ErrNoMediaSelected) {
		t.Errorf("Play() error = %v, want ErrNoMediaSelected", err)
	}
	if len(env.player.calls) != 0 {
		t.Errorf("player was invoked: %v", env.player.calls)
	}
}

func TestPlay_FileNotFound(t *testing.T) {
	env := newTestEnv(t, state.Defaults())

	err := env.ctrl.Play(filepath.Join(env.mediaDir, "missing.mp3"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Play() error = %v, want ErrFileNotFound", err)
	}
}

func TestPlay_PlaylistSelectionResumesCheckpoint(t *testing.T) {
	env := newTestEnv(t, state.Defaults())
	path := env.track(t, "a.mp3")

	env.store.Snap = state.Snapshot{
		Volume:            50,
		LastPosition:      65 * time.Second,
		Playlist:          []string{path},
		CurrentTrackIndex: 0,
	}
	env.ctrl = New(Deps{
		Store:    env.store,
		Player:   env.player,
		Metadata: &fakeMetadata{duration: 3 * time.Minute},
		Notifier: notify.Nop{},
		Logger:   zerolog.Nop(),
	})
	env.ctrl.clock.now = func() time.Time { return *env.now }

	if err := env.ctrl.Play(""); err != nil {
		t.Fatalf("Play: %v", err)
	}

	env.advance(5 * time.Second)
	elapsed, _ := env.ctrl.PlaybackInfo()
	if elapsed != 70*time.Second {
		t.Errorf("elapsed = %v, want 70s", elapsed)
	}
}

func TestPauseAndResume_PreservesPosition(t *testing.T) {
	env := newTestEnv(t, state.Defaults())
	path := env.track(t, "a.mp3")

	if err := env.ctrl.Play(path); err != nil {
		t.Fatalf("Play: %v", err)
	}
	env.advance(30 * time.Second)

	if err := env.ctrl.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if env.player.last() != "pause" {
		t.Errorf("player call = %q", env.player.last())
	}

	// Position holds while paused.
	env.advance(2 * time.Minute)
	elapsed, _ := env.ctrl.PlaybackInfo()
	if elapsed != 30*time.Second {
		t.Errorf("elapsed while paused = %v, want 30s", elapsed)
	}

	// Resume continues from the checkpoint.
	if err := env.ctrl.Play(""); err != nil {
		t.Fatalf("resume Play: %v", err)
	}
	env.advance(10 * time.Second)
	elapsed, _ = env.ctrl.PlaybackInfo()
	if elapsed != 40*time.Second {
		t.Errorf("elapsed after resume = %v, want 40s", elapsed)
	}
}

func TestPause_NoOpWhenNotPlaying(t *testing.T) {
	env := newTestEnv(t, state.Defaults())

	if err := env.ctrl.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if len(env.player.calls) != 0 {
		t.Errorf("player was invoked: %v", env.player.calls)
	}
}

func TestStop_ResetsPositionAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t, state.Defaults())
	path := env.track(t, "a.mp3")

	if err := env.ctrl.Play(path); err != nil {
		t.Fatalf("Play: %v", err)
	}
	env.advance(time.Minute)

	if err := env.ctrl.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	elapsed, _ := env.ctrl.PlaybackInfo()
	if elapsed != 0 {
		t.Errorf("elapsed after Stop = %v, want 0", elapsed)
	}
	if env.ctrl.Snapshot().Playing {
		t.Error("still playing after Stop")
	}

	// Safe when already stopped.
	if err := env.ctrl.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if env.store.Snap.LastPosition != 0 {
		t.Errorf("persisted LastPosition = %v, want 0", env.store.Snap.LastPosition)
	}
}

func TestSetVolume_Clamps(t *testing.T) {
	env := newTestEnv(t, state.Defaults())

	tests := []struct {
		in   int
		want int
	}{
		{150, 100},
		{-20, 0},
		{73, 73},
	}
	for _, tt := range tests {
		if err := env.ctrl.SetVolume(tt.in); err != nil {
			t.Fatalf("SetVolume(%d): %v", tt.in, err)
		}
		if got := env.ctrl.Snapshot().Volume; got != tt.want {
			t.Errorf("SetVolume(%d) stored %d, want %d", tt.in, got, tt.want)
		}
		if env.store.Snap.Volume != tt.want {
			t.Errorf("persisted volume = %d, want %d", env.store.Snap.Volume, tt.want)
		}
	}
}

func TestNextTrack_ExhaustionStopsPlayback(t *testing.T) {
	env := newTestEnv(t, state.Defaults())
	a := env.track(t, "a.mp3")
	b := env.track(t, "b.mp3")
	c := env.track(t, "c.mp3")

	env.ctrl.nav = playlist.NewNavigator([]string{a, b, c}, 2)
	if err := env.ctrl.Play(""); err != nil {
		t.Fatalf("Play: %v", err)
	}

	err := env.ctrl.NextTrack()
	if !errors.Is(err, playlist.ErrExhausted) {
		t.Fatalf("NextTrack() error = %v, want ErrExhausted", err)
	}
	if env.player.last() != "stop" {
		t.Errorf("player call = %q, want stop", env.player.last())
	}
	if env.ctrl.Snapshot().Playing {
		t.Error("still playing after exhaustion")
	}
}

func TestNextTrack_RepeatWrapsToFirst(t *testing.T) {
	env := newTestEnv(t, state.Defaults())
	a := env.track(t, "a.mp3")
	b := env.track(t, "b.mp3")

	env.ctrl.nav = playlist.NewNavigator([]string{a, b}, 1)
	env.ctrl.repeat = true

	if err := env.ctrl.NextTrack(); err != nil {
		t.Fatalf("NextTrack: %v", err)
	}

	snap := env.ctrl.Snapshot()
	if snap.TrackIndex != 0 {
		t.Errorf("TrackIndex = %d, want 0", snap.TrackIndex)
	}
	if snap.CurrentFile != a {
		t.Errorf("CurrentFile = %q, want %q", snap.CurrentFile, a)
	}
	if snap.Elapsed != 0 {
		t.Errorf("Elapsed = %v, want 0 for a track change", snap.Elapsed)
	}
}

func TestNextTrack_EmptyPlaylist(t *testing.T) {
	env := newTestEnv(t, state.Defaults())

	if err := env.ctrl.NextTrack(); !errors.Is(err, playlist.ErrEmpty) {
		t.Errorf("NextTrack() error = %v, want ErrEmpty", err)
	}
}

func TestPrevTrack_WrapsFromFirst(t *testing.T) {
	env := newTestEnv(t, state.Defaults())
	a := env.track(t, "a.mp3")
	b := env.track(t, "b.mp3")
	c := env.track(t, "c.mp3")

	env.ctrl.nav = playlist.NewNavigator([]string{a, b, c}, 0)

	if err := env.ctrl.PrevTrack(); err != nil {
		t.Fatalf("PrevTrack: %v", err)
	}
	if got := env.ctrl.Snapshot().TrackIndex; got != 2 {
		t.Errorf("TrackIndex = %d, want 2", got)
	}
}

func TestPlaybackInfo_ClampsToDuration(t *testing.T) {
	env := newTestEnv(t, state.Defaults())
	path := env.track(t, "a.mp3")

	if err := env.ctrl.Play(path); err != nil {
		t.Fatalf("Play: %v", err)
	}

	// Let the wall clock run far past the 3 minute track duration.
	env.advance(10 * time.Minute)

	elapsed, total := env.ctrl.PlaybackInfo()
	if total != 3*time.Minute {
		t.Fatalf("total = %v", total)
	}
	if elapsed != total {
		t.Errorf("elapsed = %v, want clamp to %v", elapsed, total)
	}

	// The clamp is presentation-only: the live clock keeps running.
	if got := env.ctrl.clock.Elapsed(); got != 10*time.Minute {
		t.Errorf("stored clock = %v, want 10m", got)
	}
}

func TestToggleModes_Persisted(t *testing.T) {
	env := newTestEnv(t, state.Defaults())

	if got := env.ctrl.ToggleRepeat(); !got {
		t.Error("ToggleRepeat() = false, want true")
	}
	if !env.store.Snap.RepeatMode {
		t.Error("repeat mode not persisted")
	}

	if got := env.ctrl.ToggleShuffle(); !got {
		t.Error("ToggleShuffle() = false, want true")
	}
	if got := env.ctrl.ToggleShuffle(); got {
		t.Error("second ToggleShuffle() = true, want false")
	}
}

func TestLoadPlaylist(t *testing.T) {
	env := newTestEnv(t, state.Defaults())

	path := filepath.Join(env.mediaDir, "list.m3u")
	content := "#comment\n\n/music/a.mp3\n/music/b.mp3\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	count, err := env.ctrl.LoadPlaylist(path)
	if err != nil {
		t.Fatalf("LoadPlaylist: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	snap := env.ctrl.Snapshot()
	if snap.PlaylistLen != 2 || snap.TrackIndex != 0 {
		t.Errorf("playlist len %d index %d, want 2 and 0", snap.PlaylistLen, snap.TrackIndex)
	}
}

func TestLoadPlaylist_Missing(t *testing.T) {
	env := newTestEnv(t, state.Defaults())

	_, err := env.ctrl.LoadPlaylist(filepath.Join(env.mediaDir, "nope.m3u"))
	if !errors.Is(err, playlist.ErrNotFound) {
		t.Errorf("LoadPlaylist() error = %v, want ErrNotFound", err)
	}
}

func TestLoadPlaylist_EmptyReported(t *testing.T) {
	env := newTestEnv(t, state.Defaults())

	path := filepath.Join(env.mediaDir, "empty.m3u")
	if err := os.WriteFile(path, []byte("# only a comment\n\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := env.ctrl.LoadPlaylist(path)
	if !errors.Is(err, playlist.ErrEmpty) {
		t.Errorf("LoadPlaylist() error = %v, want ErrEmpty", err)
	}
	if got := env.ctrl.Snapshot().TrackIndex; got != -1 {
		t.Errorf("TrackIndex = %d, want -1", got)
	}
}

func TestFetchLyrics_Placeholders(t *testing.T) {
	env := newTestEnv(t, state.Defaults())
	path := env.track(t, "a.mp3")
	if err := env.ctrl.Play(path); err != nil {
		t.Fatalf("Play: %v", err)
	}

	// No fetcher configured.
	lines, err := env.ctrl.FetchLyrics(context.Background())
	if err != nil || len(lines) == 0 {
		t.Errorf("FetchLyrics() = %v, %v", lines, err)
	}

	// No match collapses to a placeholder; the error is informational.
	env.ctrl.lyrics = &fakeLyrics{err: genius.ErrNoMatch}
	lines, err = env.ctrl.FetchLyrics(context.Background())
	if !errors.Is(err, genius.ErrNoMatch) {
		t.Errorf("error = %v, want ErrNoMatch", err)
	}
	if len(lines) == 0 {
		t.Error("expected placeholder lines")
	}

	// Success passes lines through.
	env.ctrl.lyrics = &fakeLyrics{lines: []string{"line one", "line two"}}
	lines, err = env.ctrl.FetchLyrics(context.Background())
	if err != nil {
		t.Fatalf("FetchLyrics: %v", err)
	}
	if len(lines) != 2 || lines[0] != "line one" {
		t.Errorf("lines = %v", lines)
	}
}

func TestResume_NoPreviousSession(t *testing.T) {
	env := newTestEnv(t, state.Defaults())

	if err := env.ctrl.Resume(); !errors.Is(err, ErrNoMediaSelected) {
		t.Errorf("Resume() error = %v, want ErrNoMediaSelected", err)
	}
}
