// Package genius provides a small client for the Genius song API.
//
// The client searches for a song by artist and title using a
// case-insensitive exact match, and returns the lyric lines the API makes
// available. Genius does not serve lyric bodies through its public API, so
// a successful match yields pointer lines at the song's Genius page.
//
// Example usage:
//
//	client, err := genius.NewClient(genius.Config{APIToken: token})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	lines, err := client.FetchLines(ctx, "Artist", "Title")
package genius

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public Genius API endpoint.
	DefaultBaseURL = "https://api.genius.com"

	// DefaultTimeout bounds each API call so a slow network can never
	// stall the caller's control loop.
	DefaultTimeout = 5 * time.Second
)

// Logger is an optional interface for debug logging.
type Logger interface {
	Debugf(format string, args ...interface{})
}

// Config holds client configuration.
type Config struct {
	APIToken   string        // Required: Genius client access token
	BaseURL    string        // Optional: API endpoint override (used for testing)
	HTTPClient *http.Client  // Optional: HTTP client (a timeout-bound default is used)
	Timeout    time.Duration // Optional: per-call timeout (defaults to DefaultTimeout)
	Logger     Logger        // Optional: debug logger
}

// Client talks to the Genius API.
type Client struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

// NewClient creates a new Genius API client.
//
// Returns an error if the API token is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIToken == "" {
		return nil, ErrNoToken
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		apiToken:   cfg.APIToken,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}, nil
}

// searchResponse is the subset of the /search payload we consume.
type searchResponse struct {
	Response struct {
		Hits []struct {
			Result struct {
				ID            int64  `json:"id"`
				Title         string `json:"title"`
				URL           string `json:"url"`
				PrimaryArtist struct {
					Name string `json:"name"`
				} `json:"primary_artist"`
			} `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

// songResponse is the subset of the /songs/{id} payload we consume.
type songResponse struct {
	Response struct {
		Song struct {
			URL       string `json:"url"`
			FullTitle string `json:"full_title"`
		} `json:"song"`
	} `json:"response"`
}

// Song identifies a matched Genius song.
type Song struct {
	ID     int64
	Title  string
	Artist string
	URL    string
}

// Search finds the song whose primary artist and title both match the
// given values case-insensitively. Returns ErrNoMatch when no hit matches.
func (c *Client) Search(ctx context.Context, artist, title string) (*Song, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("%s %s", artist, title))

	var sr searchResponse
	if err := c.get(ctx, "/search?"+query.Encode(), &sr); err != nil {
		return nil, err
	}

	for _, hit := range sr.Response.Hits {
		if strings.EqualFold(hit.Result.PrimaryArtist.Name, artist) &&
			strings.EqualFold(hit.Result.Title, title) {
			return &Song{
				ID:     hit.Result.ID,
				Title:  hit.Result.Title,
				Artist: hit.Result.PrimaryArtist.Name,
				URL:    hit.Result.URL,
			}, nil
		}
	}

	c.logDebugf("genius: no match for %s - %s in %d hits", artist, title, len(sr.Response.Hits))
	return nil, ErrNoMatch
}

// FetchLines searches for the song and returns the lyric lines available
// through the API. The API exposes no lyric bodies, so a match produces
// pointer lines at the Genius page for the song.
func (c *Client) FetchLines(ctx context.Context, artist, title string) ([]string, error) {
	song, err := c.Search(ctx, artist, title)
	if err != nil {
		return nil, err
	}

	var resp songResponse
	if err := c.get(ctx, fmt.Sprintf("/songs/%d", song.ID), &resp); err != nil {
		return nil, err
	}

	pageURL := resp.Response.Song.URL
	if pageURL == "" {
		pageURL = song.URL
	}

	return []string{
		fmt.Sprintf("%s - %s", song.Artist, song.Title),
		"",
		"Full lyrics are not served by the Genius API.",
		"Read them at: " + pageURL,
	}, nil
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
