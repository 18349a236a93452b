package playlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads a playlist file: one path per line, blank lines and lines
// starting with '#' ignored. Paths are made absolute.
func Load(path string) ([]string, error) {
	f, err := os.Open(expandHome(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open playlist: %w", err)
	}
	defer f.Close()

	var tracks []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		abs, err := filepath.Abs(expandHome(line))
		if err != nil {
			abs = line
		}
		tracks = append(tracks, abs)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}

	return tracks, nil
}

// Save writes the playlist back as one path per line.
func Save(path string, tracks []string) error {
	var sb strings.Builder
	for _, track := range tracks {
		sb.WriteString(track)
		sb.WriteString("\n")
	}

	if err := os.WriteFile(expandHome(path), []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write playlist: %w", err)
	}
	return nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
