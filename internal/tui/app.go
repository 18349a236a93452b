package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"

	"github.com/rkstudio585/mediactl/internal/playlist"
	"github.com/rkstudio585/mediactl/internal/session"
)

const lyricsPanelTitle = " Lyrics "

// Config holds TUI configuration options
type Config struct {
	RefreshRate  time.Duration // How often to refresh the display
	LyricsScroll bool          // Auto-scroll the lyrics panel
}

// DefaultConfig returns the default TUI configuration
func DefaultConfig() Config {
	return Config{
		RefreshRate:  250 * time.Millisecond,
		LyricsScroll: true,
	}
}

// Session is the subset of the session controller the TUI drives. Tests
// substitute fakes.
type Session interface {
	Play(path string) error
	Pause() error
	Stop() error
	NextTrack() error
	PrevTrack() error
	AdjustVolume(delta int) error
	ToggleRepeat() bool
	ToggleShuffle() bool
	ShufflePlaylist()
	Snapshot() session.Snapshot
	PlaybackInfo() (elapsed, total time.Duration)
	FetchLyrics(ctx context.Context) ([]string, error)
}

// App is the TUI application for controlling media playback
type App struct {
	app        *tview.Application
	nowPlaying *tview.TextView
	progress   *tview.TextView
	modes      *tview.TextView
	lyrics     *tview.TextView
	status     *tview.TextView

	// Configuration
	config Config

	// Session controller for playback operations
	session Session

	// Mutex protects shared state accessed by both the input handler and
	// the ticker goroutine.
	mu sync.Mutex

	// Lyrics state (guarded by mu)
	lyricsLines   []string
	lyricsOffset  int
	lyricsLoading bool

	// Transient status message and its expiry (guarded by mu)
	flashText  string
	flashUntil time.Time

	// Last-rendered content for change detection
	lastNowPlaying string
	lastProgress   string
	lastModes      string
	lastLyrics     string
	lastStatus     string

	// Cached progress bar width to stabilize change detection.
	// Updated only when GetInnerRect returns a positive value.
	lastBarWidth int

	// Context cancel function and ticker shutdown signal
	cancelFunc context.CancelFunc
	loopDone   chan struct{}
}

// New creates a new TUI application with default config
func New(sess Session) *App {
	return NewWithConfig(sess, DefaultConfig())
}

// NewWithConfig creates a new TUI application with the given config
func NewWithConfig(sess Session, cfg Config) *App {
	a := &App{
		app:     tview.NewApplication(),
		config:  cfg,
		session: sess,
	}
	a.setupUI()
	return a
}

// setupUI creates the UI layout
func (a *App) setupUI() {
	// Now playing panel
	a.nowPlaying = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.nowPlaying.SetBorder(true).
		SetTitle(" Now Playing ").
		SetTitleAlign(tview.AlignLeft)

	// Progress bar
	a.progress = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.progress.SetBorder(true)

	// Volume and mode indicators
	a.modes = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.modes.SetBorder(true).
		SetTitle(" Status ").
		SetTitleAlign(tview.AlignLeft)

	// Lyrics panel
	a.lyrics = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft).
		SetWrap(true)
	a.lyrics.SetBorder(true).
		SetTitle(lyricsPanelTitle).
		SetTitleAlign(tview.AlignLeft)

	// Status bar
	a.status = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText(keyHelp)

	bottomRow := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.modes, 24, 0, false).
		AddItem(a.lyrics, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.nowPlaying, 0, 3, false).
		AddItem(a.progress, 3, 1, false).
		AddItem(bottomRow, 9, 1, false).
		AddItem(a.status, 1, 1, false)

	// Handle keyboard input
	a.app.SetInputCapture(a.handleKeyEvent)

	a.app.SetRoot(flex, true)
}

const keyHelp = "[gray]q:quit  space:play/pause  n/p:track  ↑↓:volume  s:shuffle  S:reorder  r:repeat  l:lyrics[-]"

// handleKeyEvent processes keyboard input
func (a *App) handleKeyEvent(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyRight:
		a.nextTrack()
		return nil
	case tcell.KeyLeft:
		a.prevTrack()
		return nil
	case tcell.KeyUp:
		_ = a.session.AdjustVolume(5)
		return nil
	case tcell.KeyDown:
		_ = a.session.AdjustVolume(-5)
		return nil
	}

	switch event.Rune() {
	case 'q', 'Q':
		a.app.Stop()
		return nil
	case ' ':
		a.togglePlayback()
		return nil
	case 'n', 'N':
		a.nextTrack()
		return nil
	case 'p', 'P':
		a.prevTrack()
		return nil
	case '+', '=':
		_ = a.session.AdjustVolume(5)
		return nil
	case '-', '_':
		_ = a.session.AdjustVolume(-5)
		return nil
	case 's':
		on := a.session.ToggleShuffle()
		a.flash(modeFlash("Shuffle", on))
		return nil
	case 'S':
		a.session.ShufflePlaylist()
		a.flash("Playlist shuffled")
		return nil
	case 'r', 'R':
		on := a.session.ToggleRepeat()
		a.flash(modeFlash("Repeat", on))
		return nil
	case 'l', 'L':
		a.requestLyrics()
		return nil
	}
	return event
}

// togglePlayback pauses when playing and resumes otherwise
func (a *App) togglePlayback() {
	if a.session.Snapshot().Playing {
		_ = a.session.Pause()
		return
	}
	if err := a.session.Play(""); err != nil {
		a.flash("Nothing to play")
	}
}

func (a *App) nextTrack() {
	switch err := a.session.NextTrack(); {
	case err == nil:
	case errors.Is(err, playlist.ErrExhausted):
		a.flash("End of playlist")
	case errors.Is(err, playlist.ErrEmpty):
		a.flash("No playlist loaded")
	case errors.Is(err, session.ErrFileNotFound):
		a.flash("File not found")
	default:
		a.flash("Playback error")
	}
}

func (a *App) prevTrack() {
	switch err := a.session.PrevTrack(); {
	case err == nil:
	case errors.Is(err, playlist.ErrEmpty):
		a.flash("No playlist loaded")
	case errors.Is(err, session.ErrFileNotFound):
		a.flash("File not found")
	default:
		a.flash("Playback error")
	}
}

// requestLyrics kicks off a lyrics fetch in the background. The result is
// stored under the mutex and picked up by the next tick.
func (a *App) requestLyrics() {
	a.mu.Lock()
	if a.lyricsLoading {
		a.mu.Unlock()
		return
	}
	a.lyricsLoading = true
	a.lyricsLines = nil
	a.lyricsOffset = 0
	a.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		lines, _ := a.session.FetchLyrics(ctx)

		a.mu.Lock()
		a.lyricsLines = lines
		a.lyricsOffset = 0
		a.lyricsLoading = false
		a.mu.Unlock()
	}()
}

// flash shows a transient message in the status bar
func (a *App) flash(text string) {
	a.mu.Lock()
	a.flashText = text
	a.flashUntil = time.Now().Add(2 * time.Second)
	a.mu.Unlock()
}

func modeFlash(name string, on bool) string {
	if on {
		return name + " on"
	}
	return name + " off"
}

// Run starts the TUI and blocks until it exits. The ticker context is
// released when the event loop returns, whichever way it stopped.
func (a *App) Run(ctx context.Context) error {
	ctx, a.cancelFunc = context.WithCancel(ctx)

	a.loopDone = make(chan struct{})
	go func() {
		defer close(a.loopDone)
		a.tickLoop(ctx)
	}()

	err := a.app.Run()
	a.cancelFunc()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

// tickLoop drives all redraws from a single ticker to prevent queued
// redraw buildup. Input handlers mutate state only; rendering happens here.
func (a *App) tickLoop(ctx context.Context) {
	refreshRate := a.config.RefreshRate
	if refreshRate <= 0 {
		refreshRate = 250 * time.Millisecond
	}
	ticker := time.NewTicker(refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.app.Stop()
			return
		case <-ticker.C:
			a.refresh()
		}
	}
}

// refresh updates all UI components
func (a *App) refresh() {
	snap := a.session.Snapshot()
	elapsed, total := a.session.PlaybackInfo()

	a.app.QueueUpdateDraw(func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		a.updateNowPlaying(snap)
		a.updateProgress(snap, elapsed, total)
		a.updateModes(snap)
		a.updateLyrics()
		a.updateStatus()
	})
}

// updateNowPlaying updates the now playing panel
func (a *App) updateNowPlaying(snap session.Snapshot) {
	var text string

	if snap.CurrentFile == "" {
		text = "\n\n[gray]No media selected[-]"
	} else {
		var sb strings.Builder
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("[white::b]%s[-:-:-]\n", tview.Escape(fitText(snap.Title, 60))))
		sb.WriteString(fmt.Sprintf("[yellow]%s[-]\n", tview.Escape(fitText(snap.Artist, 60))))
		sb.WriteString(fmt.Sprintf("[gray]%s[-]", tview.Escape(fitText(snap.Album, 60))))

		// Play state indicator
		stateIcon := "[yellow]⏸[-]" // Pause icon
		if snap.Playing {
			stateIcon = "[green]▶[-]" // Play triangle
		}
		sb.WriteString(fmt.Sprintf("\n\n%s", stateIcon))

		if snap.PlaylistLen > 0 && snap.TrackIndex >= 0 {
			sb.WriteString(fmt.Sprintf("  [gray]%d/%d[-]", snap.TrackIndex+1, snap.PlaylistLen))
		}
		text = sb.String()
	}

	if text != a.lastNowPlaying {
		a.lastNowPlaying = text
		a.nowPlaying.SetText(text)
	}
}

// updateProgress updates the progress bar
func (a *App) updateProgress(snap session.Snapshot, elapsed, total time.Duration) {
	var text string

	if snap.CurrentFile != "" {
		_, _, width, _ := a.progress.GetInnerRect()
		barWidth := width - 14 // Account for time display
		// Only update cached width when GetInnerRect returns a positive value,
		// avoiding flicker from transient zero-width during layout.
		if barWidth > 0 {
			a.lastBarWidth = barWidth
		}
		if a.lastBarWidth < 10 {
			a.lastBarWidth = 10
		}

		progressBar := buildProgressBar(elapsed, total, a.lastBarWidth)
		posStr := formatDuration(elapsed)
		durStr := "--:--"
		if total > 0 {
			durStr = formatDuration(total)
		}
		text = fmt.Sprintf("%s %s %s", posStr, progressBar, durStr)
	}

	if text != a.lastProgress {
		a.lastProgress = text
		a.progress.SetText(text)
	}
}

// updateModes updates the volume and mode panel
func (a *App) updateModes(snap session.Snapshot) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Volume  %s %3d%%\n\n", buildVolumeBar(snap.Volume, 10), snap.Volume))
	sb.WriteString(fmt.Sprintf("Shuffle %s\n", modeIndicator(snap.ShuffleMode)))
	sb.WriteString(fmt.Sprintf("Repeat  %s\n", modeIndicator(snap.RepeatMode)))

	text := sb.String()
	if text != a.lastModes {
		a.lastModes = text
		a.modes.SetText(text)
	}
}

// updateLyrics renders the lyrics panel, scrolling one line per tick
// through long lyrics when auto-scroll is enabled.
func (a *App) updateLyrics() {
	var text string

	switch {
	case a.lyricsLoading:
		text = "[gray]Fetching lyrics...[-]"
	case len(a.lyricsLines) == 0:
		text = "[gray]Press l to fetch lyrics[-]"
	default:
		_, _, _, height := a.lyrics.GetInnerRect()
		if height <= 0 {
			height = 6
		}

		window := a.lyricsLines
		if len(a.lyricsLines) > height {
			start := a.lyricsOffset % len(a.lyricsLines)
			window = make([]string, height)
			for i := 0; i < height; i++ {
				window[i] = a.lyricsLines[(start+i)%len(a.lyricsLines)]
			}
			if a.config.LyricsScroll {
				a.lyricsOffset = (a.lyricsOffset + 1) % len(a.lyricsLines)
			}
		}

		escaped := make([]string, len(window))
		for i, line := range window {
			escaped[i] = tview.Escape(line)
		}
		text = strings.Join(escaped, "\n")
	}

	if text != a.lastLyrics {
		a.lastLyrics = text
		a.lyrics.SetText(text)
	}
}

// updateStatus shows the key help, replaced by a transient flash message
// while one is active.
func (a *App) updateStatus() {
	text := keyHelp
	if a.flashText != "" && time.Now().Before(a.flashUntil) {
		text = fmt.Sprintf("[orange]%s[-]", tview.Escape(a.flashText))
	}

	if text != a.lastStatus {
		a.lastStatus = text
		a.status.SetText(text)
	}
}

// Stop stops the TUI application
func (a *App) Stop() {
	if a.cancelFunc != nil {
		a.cancelFunc()
	}
	a.app.Stop()
}

// buildProgressBar creates a text-based progress bar
func buildProgressBar(position, duration time.Duration, width int) string {
	if duration == 0 || width <= 0 {
		return strings.Repeat("-", width)
	}

	progress := float64(position) / float64(duration)
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}

	filled := int(progress * float64(width))
	empty := width - filled

	bar := "[green]" + strings.Repeat("█", filled) + "[-]" +
		"[gray]" + strings.Repeat("░", empty) + "[-]"

	return bar
}

// buildVolumeBar renders the volume level as a fixed-width bar
func buildVolumeBar(level, width int) string {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	filled := level * width / 100
	return "[green]" + strings.Repeat("█", filled) + "[-]" +
		"[gray]" + strings.Repeat("░", width-filled) + "[-]"
}

func modeIndicator(on bool) string {
	if on {
		return "[green]on[-]"
	}
	return "[gray]off[-]"
}

// fitText truncates text to the given display width, accounting for wide
// runes
func fitText(text string, width int) string {
	if runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "...")
}

// formatDuration formats a duration as MM:SS or HH:MM:SS for longer durations
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
