package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	dir := t.TempDir()
	return NewFileStore(filepath.Join(dir, "state.json"), Defaults(), zerolog.Nop())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	s := newTestStore(t)

	snap := s.Load()

	want := Defaults()
	if snap.Volume != want.Volume {
		t.Errorf("Volume = %d, want %d", snap.Volume, want.Volume)
	}
	if snap.CurrentTrackIndex != -1 {
		t.Errorf("CurrentTrackIndex = %d, want -1", snap.CurrentTrackIndex)
	}
	if len(snap.Playlist) != 0 {
		t.Errorf("Playlist = %v, want empty", snap.Playlist)
	}
	if snap.RepeatMode || snap.ShuffleMode {
		t.Error("expected modes off by default")
	}
	if snap.LastPosition != 0 {
		t.Errorf("LastPosition = %v, want 0", snap.LastPosition)
	}
}

func TestLoad_UsesConfiguredDefaults(t *testing.T) {
	dir := t.TempDir()
	defaults := Defaults()
	defaults.Volume = 80
	s := NewFileStore(filepath.Join(dir, "state.json"), defaults, zerolog.Nop())

	// No snapshot yet: the configured volume applies.
	if got := s.Load().Volume; got != 80 {
		t.Errorf("Volume = %d, want 80", got)
	}

	// A persisted session keeps its own volume.
	snap := Defaults()
	snap.Volume = 30
	if err := s.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := s.Load().Volume; got != 30 {
		t.Errorf("Volume = %d, want 30", got)
	}
}

func TestNewFileStore_ClampsDefaultVolume(t *testing.T) {
	defaults := Defaults()
	defaults.Volume = 170
	s := NewFileStore(filepath.Join(t.TempDir(), "state.json"), defaults, zerolog.Nop())

	if got := s.Load().Volume; got != 100 {
		t.Errorf("Volume = %d, want 100", got)
	}
}

func TestLoad_CorruptFileReturnsDefaults(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.filePath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	snap := s.Load()

	if snap.Volume != 50 || snap.CurrentTrackIndex != -1 {
		t.Errorf("corrupt file did not yield defaults: %+v", snap)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	in := Snapshot{
		CurrentFile:       "/music/a.mp3",
		LastPosition:      95500 * time.Millisecond,
		Volume:            70,
		Playlist:          []string{"/music/a.mp3", "/music/b.mp3"},
		CurrentTrackIndex: 1,
		RepeatMode:        true,
		ShuffleMode:       false,
	}
	if err := s.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out := s.Load()
	if out.CurrentFile != in.CurrentFile {
		t.Errorf("CurrentFile = %q, want %q", out.CurrentFile, in.CurrentFile)
	}
	if out.LastPosition != in.LastPosition {
		t.Errorf("LastPosition = %v, want %v", out.LastPosition, in.LastPosition)
	}
	if out.Volume != in.Volume || out.CurrentTrackIndex != in.CurrentTrackIndex {
		t.Errorf("got %+v, want %+v", out, in)
	}
	if !out.RepeatMode || out.ShuffleMode {
		t.Errorf("modes = repeat:%t shuffle:%t", out.RepeatMode, out.ShuffleMode)
	}
	if len(out.Playlist) != 2 || out.Playlist[0] != "/music/a.mp3" {
		t.Errorf("Playlist = %v", out.Playlist)
	}
}

func TestLoad_ClampsHandEditedValues(t *testing.T) {
	s := newTestStore(t)

	content := `{"current_file":"/music/a.mp3","last_position":-3,"volume":150,"playlist":["/music/a.mp3"],"current_track_index":9,"repeat_mode":false,"shuffle_mode":false}`
	if err := os.WriteFile(s.filePath, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	snap := s.Load()
	if snap.Volume != 100 {
		t.Errorf("Volume = %d, want 100", snap.Volume)
	}
	if snap.LastPosition != 0 {
		t.Errorf("LastPosition = %v, want 0", snap.LastPosition)
	}
	if snap.CurrentTrackIndex != -1 {
		t.Errorf("CurrentTrackIndex = %d, want -1", snap.CurrentTrackIndex)
	}
}

func TestSave_NoTempFileLeftBehind(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save(Defaults()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(s.filePath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}
}
