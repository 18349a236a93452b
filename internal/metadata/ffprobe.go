package metadata

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultProbeCommand extracts container tags and duration as JSON.
const DefaultProbeCommand = "ffprobe"

// FFProbeProvider implements Provider by shelling out to ffprobe.
type FFProbeProvider struct {
	command string
	logger  zerolog.Logger
}

// NewFFProbeProvider creates an ffprobe-backed provider. An empty command
// name falls back to "ffprobe".
func NewFFProbeProvider(command string, logger zerolog.Logger) *FFProbeProvider {
	if command == "" {
		command = DefaultProbeCommand
	}
	return &FFProbeProvider{
		command: command,
		logger:  logger.With().Str("component", "metadata").Logger(),
	}
}

// probeOutput is the subset of ffprobe -show_format JSON we consume.
type probeOutput struct {
	Format struct {
		Duration string            `json:"duration"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
}

// Load probes the file for tags. Any failure yields the fallback metadata.
func (p *FFProbeProvider) Load(ctx context.Context, path string) Metadata {
	cmd := exec.CommandContext(ctx, p.command,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		p.logger.Debug().Err(err).Str("path", path).Msg("Probe failed, using fallback metadata")
		return Fallback(path)
	}

	var probe probeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		p.logger.Debug().Err(err).Str("path", path).Msg("Failed to parse probe output")
		return Fallback(path)
	}

	meta := Fallback(path)

	if title := tagValue(probe.Format.Tags, "title", "TITLE"); title != "" {
		meta.Title = title
	}
	if artist := tagValue(probe.Format.Tags, "artist", "ARTIST"); artist != "" {
		meta.Artist = artist
	}
	if album := tagValue(probe.Format.Tags, "album", "ALBUM"); album != "" {
		meta.Album = album
	}
	if seconds, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil && seconds > 0 {
		meta.Duration = time.Duration(seconds * float64(time.Second))
	}

	return meta
}

// tagValue returns the first matching tag key. ffprobe preserves the tag
// case of the container, so common variants are checked.
func tagValue(tags map[string]string, keys ...string) string {
	for _, key := range keys {
		if v, ok := tags[key]; ok {
			return v
		}
	}
	return ""
}
