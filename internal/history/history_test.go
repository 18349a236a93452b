package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Truncate(time.Second)
	for i, title := range []string{"First", "Second", "Third"} {
		_, err := s.Record(ctx, Play{
			Path:      "/music/" + title + ".mp3",
			Title:     title,
			Artist:    "The Band",
			Album:     "Record",
			Duration:  3 * time.Minute,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	plays, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(plays) != 2 {
		t.Fatalf("len = %d, want 2", len(plays))
	}
	if plays[0].Title != "Third" || plays[1].Title != "Second" {
		t.Errorf("order = %q, %q; want newest first", plays[0].Title, plays[1].Title)
	}
	if plays[0].Duration != 3*time.Minute {
		t.Errorf("Duration = %v", plays[0].Duration)
	}
}

func TestUpdatePlayed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Record(ctx, Play{
		Path:      "/music/a.mp3",
		Title:     "A",
		Duration:  4 * time.Minute,
		StartedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if err := s.UpdatePlayed(ctx, id, 95*time.Second); err != nil {
		t.Fatalf("UpdatePlayed: %v", err)
	}

	plays, err := s.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if plays[0].Played != 95*time.Second {
		t.Errorf("Played = %v, want 95s", plays[0].Played)
	}
}

func TestRecent_Empty(t *testing.T) {
	s := newTestStore(t)

	plays, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(plays) != 0 {
		t.Errorf("len = %d, want 0", len(plays))
	}
}
