package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rkstudio585/mediactl/internal/config"
	"github.com/rkstudio585/mediactl/internal/history"
	"github.com/rkstudio585/mediactl/internal/metadata"
	"github.com/rkstudio585/mediactl/internal/notify"
	"github.com/rkstudio585/mediactl/internal/player"
	"github.com/rkstudio585/mediactl/internal/session"
	"github.com/rkstudio585/mediactl/internal/state"
	"github.com/rkstudio585/mediactl/internal/tui"
	"github.com/rkstudio585/mediactl/pkg/genius"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var (
	flagResume       bool
	flagVolume       int
	flagPlaylist     string
	flagSavePlaylist string
	flagShuffle      bool
	flagRepeat       bool
	flagLyrics       bool
	flagHistory      int
	flagLogFile      string
	flagLogLevel     string
	flagDataDir      string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mediactl [file]",
	Short: "Terminal media player front-end",
	Long: `mediactl is a terminal front-end for an external media player.

It launches playback through the system media player, tracks playback
position, playlists and volume on its own, and drives everything from an
interactive terminal UI. Playback state survives restarts: the session is
persisted after every change and can be resumed with --resume.

Pass a media file to play it, or an .m3u playlist file to load and play
the playlist. Lyrics lookup requires a Genius API token (GENIUS_API_TOKEN).`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	Args:    cobra.MaximumNArgs(1),
	RunE:    run,

	// Runtime failures are not usage errors
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&flagResume, "resume", false, "Resume the previous session")
	rootCmd.Flags().IntVar(&flagVolume, "volume", -1, "Set volume (0-100)")
	rootCmd.Flags().StringVar(&flagPlaylist, "playlist", "", "Load a playlist file")
	rootCmd.Flags().StringVar(&flagSavePlaylist, "save-playlist", "", "Save the current playlist to a file and exit")
	rootCmd.Flags().BoolVar(&flagShuffle, "shuffle", false, "Enable shuffle mode")
	rootCmd.Flags().BoolVar(&flagRepeat, "repeat", false, "Enable repeat mode")
	rootCmd.Flags().BoolVar(&flagLyrics, "lyrics", false, "Print lyrics for the current track and exit")
	rootCmd.Flags().IntVar(&flagHistory, "history", 0, "Print the N most recent plays and exit")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Log file path (default: discard)")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&flagDataDir, "data-dir", "", "Data directory for state and history (default: ~/.config/mediactl)")
}

func run(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Set up logging. Stderr is owned by the TUI, so logs go to a file or
	// nowhere.
	logger := setupLogger(flagLogFile, flagLogLevel)

	// Determine data directory
	dataDir := flagDataDir
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	logger.Info().Str("data_dir", dataDir).Msg("Using data directory")

	// Play history database
	hist, err := history.Open(filepath.Join(dataDir, "history.db"))
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer hist.Close()

	// Lyrics client, when a token is configured
	var lyricsClient session.LyricsFetcher
	if cfg.Genius.APIToken != "" {
		client, err := genius.NewClient(genius.Config{
			APIToken: cfg.Genius.APIToken,
			BaseURL:  cfg.Genius.BaseURL,
			Timeout:  time.Duration(cfg.Genius.Timeout) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to create lyrics client: %w", err)
		}
		lyricsClient = client
	}

	// A configured default volume applies only when no snapshot exists;
	// a persisted session keeps its own volume.
	defaults := state.Defaults()
	defaults.Volume = cfg.DefaultVolume

	ctrl := session.New(session.Deps{
		Store:    state.NewFileStore(filepath.Join(dataDir, "state.json"), defaults, logger),
		Player:   player.NewExecPlayer(cfg.Player.Command, cfg.Player.VolumeCommand, logger),
		Metadata: metadata.NewFFProbeProvider(cfg.Player.ProbeCommand, logger),
		Notifier: notify.NewDesktopNotifier(logger),
		Lyrics:   lyricsClient,
		History:  hist,
		Logger:   logger,
	})

	// Apply one-shot flags before anything starts playing
	if flagVolume >= 0 {
		if err := ctrl.SetVolume(flagVolume); err != nil {
			logger.Warn().Err(err).Msg("Failed to apply volume")
		}
	}
	if flagPlaylist != "" {
		count, err := ctrl.LoadPlaylist(flagPlaylist)
		if err != nil {
			return fmt.Errorf("failed to load playlist: %w", err)
		}
		fmt.Printf("Loaded %d tracks\n", count)
	}
	if flagShuffle && !ctrl.Snapshot().ShuffleMode {
		ctrl.ToggleShuffle()
	}
	if flagRepeat && !ctrl.Snapshot().RepeatMode {
		ctrl.ToggleRepeat()
	}

	// Non-interactive modes print and exit
	if flagSavePlaylist != "" {
		if err := ctrl.SavePlaylist(flagSavePlaylist); err != nil {
			return fmt.Errorf("failed to save playlist: %w", err)
		}
		fmt.Printf("Playlist saved to %s\n", flagSavePlaylist)
		return nil
	}
	if flagHistory > 0 {
		return printHistory(hist, flagHistory)
	}
	if flagLyrics {
		return printLyrics(os.Stdout, ctrl, logger)
	}

	// Resolve what to play
	switch {
	case len(args) == 1:
		path := args[0]
		if strings.EqualFold(filepath.Ext(path), ".m3u") {
			count, err := ctrl.LoadPlaylist(path)
			if err != nil {
				return fmt.Errorf("failed to load playlist: %w", err)
			}
			logger.Info().Int("tracks", count).Str("playlist", path).Msg("Playlist loaded")
			if err := ctrl.Play(""); err != nil {
				return err
			}
		} else if err := ctrl.Play(path); err != nil {
			return err
		}
	case flagResume:
		if err := ctrl.Resume(); err != nil {
			return fmt.Errorf("nothing to resume: %w", err)
		}
	}

	// Run the TUI. Playback always stops on the way out so the external
	// player is never left running unattended.
	app := tui.NewWithConfig(ctrl, tui.Config{
		RefreshRate:  time.Duration(cfg.TickInterval) * time.Millisecond,
		LyricsScroll: true,
	})

	runErr := app.Run(context.Background())
	if stopErr := ctrl.Stop(); stopErr != nil {
		logger.Warn().Err(stopErr).Msg("Failed to stop playback on exit")
	}
	if runErr != nil {
		return fmt.Errorf("%w (a terminal is required; use --lyrics, --history or --save-playlist for non-interactive use)", runErr)
	}
	return nil
}

// printHistory writes the most recent plays to stdout
func printHistory(hist *history.Store, limit int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	plays, err := hist.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(plays) == 0 {
		fmt.Println("No plays recorded yet")
		return nil
	}

	for _, p := range plays {
		title := p.Title
		if title == "" {
			title = filepath.Base(p.Path)
		}
		fmt.Printf("%s  %s - %s (%s played)\n",
			p.StartedAt.Local().Format("2006-01-02 15:04"),
			p.Artist, title, p.Played.Round(time.Second))
	}
	return nil
}

// printLyrics fetches lyrics for the persisted current track and prints
// the result. Fetch failures are already collapsed into placeholder lines
// by the session, so once something is printed the exit is normal.
func printLyrics(w io.Writer, ctrl *session.Controller, logger zerolog.Logger) error {
	snap := ctrl.Snapshot()
	if snap.CurrentFile == "" {
		return fmt.Errorf("no current track; play something first")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lines, err := ctrl.FetchLyrics(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("Lyrics fetch failed")
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}

// setupLogger creates a logger with the specified configuration
func setupLogger(logFile, logLevel string) zerolog.Logger {
	// Parse log level
	level := zerolog.InfoLevel
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if logFile == "" {
		// The terminal belongs to the TUI
		return zerolog.Nop()
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return zerolog.Nop()
	}

	return zerolog.New(f).
		Level(level).
		With().
		Timestamp().
		Logger()
}
