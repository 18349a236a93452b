package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Snapshot is the serializable session state. It is owned by the session
// controller and written back after every mutating operation, so a crash
// loses at most the in-flight playback interval.
type Snapshot struct {
	CurrentFile       string
	LastPosition      time.Duration
	Volume            int
	Playlist          []string
	CurrentTrackIndex int
	RepeatMode        bool
	ShuffleMode       bool
}

// Defaults returns the state used when no snapshot exists or the stored
// one cannot be parsed.
func Defaults() Snapshot {
	return Snapshot{
		Volume:            50,
		CurrentTrackIndex: -1,
	}
}

// Store persists session snapshots. The file-backed implementation is used
// in production; tests substitute an in-memory one.
type Store interface {
	Load() Snapshot
	Save(Snapshot) error
}

// persistedState is the JSON representation of a snapshot on disk.
// LastPosition is stored as seconds to keep the file human-readable.
type persistedState struct {
	CurrentFile       string   `json:"current_file"`
	LastPosition      float64  `json:"last_position"`
	Volume            int      `json:"volume"`
	Playlist          []string `json:"playlist"`
	CurrentTrackIndex int      `json:"current_track_index"`
	RepeatMode        bool     `json:"repeat_mode"`
	ShuffleMode       bool     `json:"shuffle_mode"`
}

// FileStore reads and writes snapshots as JSON at a fixed path.
type FileStore struct {
	filePath string
	defaults Snapshot
	logger   zerolog.Logger
}

// NewFileStore creates a file-backed store at filePath. The defaults are
// returned by Load when no snapshot exists; callers with a configured
// default volume pass it through here.
func NewFileStore(filePath string, defaults Snapshot, logger zerolog.Logger) *FileStore {
	if defaults.Volume < 0 {
		defaults.Volume = 0
	}
	if defaults.Volume > 100 {
		defaults.Volume = 100
	}
	return &FileStore{
		filePath: filePath,
		defaults: defaults,
		logger:   logger.With().Str("component", "state").Logger(),
	}
}

// Load reads the snapshot from disk. A missing or malformed file is treated
// as absent and yields the defaults; load can never fail.
func (s *FileStore) Load() Snapshot {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug().Err(err).Msg("Failed to read state file, using defaults")
		}
		return s.defaults
	}

	var ps persistedState
	if err := json.Unmarshal(data, &ps); err != nil {
		s.logger.Warn().Err(err).Msg("State file is corrupt, using defaults")
		return s.defaults
	}

	snap := Snapshot{
		CurrentFile:       ps.CurrentFile,
		LastPosition:      time.Duration(ps.LastPosition * float64(time.Second)),
		Volume:            ps.Volume,
		Playlist:          ps.Playlist,
		CurrentTrackIndex: ps.CurrentTrackIndex,
		RepeatMode:        ps.RepeatMode,
		ShuffleMode:       ps.ShuffleMode,
	}

	// Clamp fields that may have been edited by hand
	if snap.Volume < 0 {
		snap.Volume = 0
	}
	if snap.Volume > 100 {
		snap.Volume = 100
	}
	if snap.LastPosition < 0 {
		snap.LastPosition = 0
	}
	if snap.CurrentTrackIndex < -1 || snap.CurrentTrackIndex >= len(snap.Playlist) {
		snap.CurrentTrackIndex = -1
	}

	return snap
}

// Save writes the snapshot atomically via temp file + rename.
func (s *FileStore) Save(snap Snapshot) error {
	ps := persistedState{
		CurrentFile:       snap.CurrentFile,
		LastPosition:      snap.LastPosition.Seconds(),
		Volume:            snap.Volume,
		Playlist:          snap.Playlist,
		CurrentTrackIndex: snap.CurrentTrackIndex,
		RepeatMode:        snap.RepeatMode,
		ShuffleMode:       snap.ShuffleMode,
	}

	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpPath, s.filePath)
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	Snap  Snapshot
	Saves int
}

// NewMemStore creates a MemStore seeded with the given snapshot.
func NewMemStore(snap Snapshot) *MemStore {
	return &MemStore{Snap: snap}
}

func (m *MemStore) Load() Snapshot { return m.Snap }

func (m *MemStore) Save(snap Snapshot) error {
	m.Snap = snap
	m.Saves++
	return nil
}
