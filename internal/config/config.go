package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Default volume level (0-100) applied when no saved state exists
	DefaultVolume int

	// Display refresh interval for the TUI (in milliseconds)
	TickInterval int

	// Directory for the state snapshot and play history database.
	// Defaults to ~/.config/mediactl
	DataDir string

	// External player command configuration
	Player PlayerConfig

	// Genius lyrics API credentials
	Genius GeniusConfig
}

// PlayerConfig holds the external command names the player shells out to
type PlayerConfig struct {
	Command       string
	VolumeCommand string
	ProbeCommand  string
}

// GeniusConfig holds Genius specific configuration
type GeniusConfig struct {
	APIToken string
	BaseURL  string
	// Request timeout (in seconds)
	Timeout int
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("default_volume", 50)
	v.SetDefault("tick_interval", 250)
	v.SetDefault("data_dir", configDir)
	v.SetDefault("player.command", "termux-media-player")
	v.SetDefault("player.volume_command", "termux-volume")
	v.SetDefault("player.probe_command", "ffprobe")
	v.SetDefault("genius.timeout", 5)

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	// Read from environment variables
	v.SetEnvPrefix("MEDIACTL")
	v.AutomaticEnv()

	// The token is commonly set as GENIUS_API_TOKEN rather than through
	// the prefixed form
	_ = v.BindEnv("genius.api_token", "MEDIACTL_GENIUS_API_TOKEN", "GENIUS_API_TOKEN")

	// Map config to struct
	cfg := &Config{
		DefaultVolume: v.GetInt("default_volume"),
		TickInterval:  v.GetInt("tick_interval"),
		DataDir:       v.GetString("data_dir"),
		Player: PlayerConfig{
			Command:       v.GetString("player.command"),
			VolumeCommand: v.GetString("player.volume_command"),
			ProbeCommand:  v.GetString("player.probe_command"),
		},
		Genius: GeniusConfig{
			APIToken: v.GetString("genius.api_token"),
			BaseURL:  v.GetString("genius.base_url"),
			Timeout:  v.GetInt("genius.timeout"),
		},
	}

	return cfg, nil
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "mediactl")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}
