//go:build integration
// +build integration

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func buildBinary(t *testing.T) string {
	t.Helper()

	bin := filepath.Join(t.TempDir(), "mediactl_test")
	buildCmd := exec.Command("go", "build", "-o", bin, ".")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build binary: %v\n%s", err, out)
	}
	return bin
}

// TestHistoryCommand exercises the non-interactive history listing against
// a fresh data directory.
func TestHistoryCommand(t *testing.T) {
	bin := buildBinary(t)
	dataDir := t.TempDir()

	cmd := exec.Command(bin, "--history", "5", "--data-dir", dataDir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("history command failed: %v\n%s", err, output)
	}

	if !strings.Contains(string(output), "No plays recorded yet") {
		t.Errorf("output = %q, want empty-history message", output)
	}

	// The history database is created on first use.
	if _, err := os.Stat(filepath.Join(dataDir, "history.db")); err != nil {
		t.Errorf("history database not created: %v", err)
	}
}

// TestPlaylistRoundTrip loads a playlist and saves it back out without
// entering the TUI.
func TestPlaylistRoundTrip(t *testing.T) {
	bin := buildBinary(t)
	dataDir := t.TempDir()
	workDir := t.TempDir()

	src := filepath.Join(workDir, "in.m3u")
	content := "# my mix\n/music/a.mp3\n/music/b.mp3\n"
	if err := os.WriteFile(src, []byte(content), 0644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}

	dst := filepath.Join(workDir, "out.m3u")
	cmd := exec.Command(bin,
		"--playlist", src,
		"--save-playlist", dst,
		"--data-dir", dataDir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("save-playlist failed: %v\n%s", err, output)
	}

	saved, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read saved playlist: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(saved)), "\n")
	if len(lines) != 2 {
		t.Errorf("saved playlist has %d lines, want 2: %q", len(lines), saved)
	}

	// The session snapshot persists across invocations.
	if _, err := os.Stat(filepath.Join(dataDir, "state.json")); err != nil {
		t.Errorf("state snapshot not created: %v", err)
	}
}
