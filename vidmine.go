// Package vidmine provides a high-level API for extracting video metadata
// and stream URLs from watch pages. Configure an Extractor with the
// chainable With* setters, then call Extract or ResolveURL.
package vidmine

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/vidmine/vidmine/internal/fetch"
	"github.com/vidmine/vidmine/internal/playercache"
	"github.com/vidmine/vidmine/types"
	"github.com/vidmine/vidmine/youtube/formats"
	"github.com/vidmine/vidmine/youtube/sigdecode"
	"github.com/vidmine/vidmine/youtube/watchpage"
)

// Options holds configuration for an Extractor.
//
// Use the chainable setters on Extractor to populate these options.
type Options struct {
	FormatSelector string
	DesiredExt     string
	ClientConfig   fetch.Config
	HTTPClient     *http.Client
	Fetcher        fetch.Fetcher
	PlayerCacheDir string
}

// Extractor is the facade over the full extraction pipeline.
type Extractor struct {
	options Options
}

// New creates an Extractor with default options.
func New() *Extractor {
	return &Extractor{}
}

// WithFormat sets a format selector and optional desired extension.
// Examples: "itag=22", "best", "height<=480". Extension is case-insensitive.
func (e *Extractor) WithFormat(quality, ext string) *Extractor {
	e.options.FormatSelector = quality
	e.options.DesiredExt = strings.TrimPrefix(strings.ToLower(ext), ".")
	return e
}

// WithClientConfig sets HTTP parameters (timeout, retries, user agent,
// proxy) for the built-in fetcher. Zero values use defaults.
func (e *Extractor) WithClientConfig(cfg fetch.Config) *Extractor {
	e.options.ClientConfig = cfg
	return e
}

// WithHTTPClient sets a custom HTTP client to be used for all network calls.
func (e *Extractor) WithHTTPClient(client *http.Client) *Extractor {
	e.options.HTTPClient = client
	return e
}

// WithFetcher replaces the whole fetch layer. Takes precedence over
// WithClientConfig and WithHTTPClient.
func (e *Extractor) WithFetcher(fetcher fetch.Fetcher) *Extractor {
	e.options.Fetcher = fetcher
	return e
}

// WithPlayerCacheDir persists downloaded player bundles under dir so repeat
// runs skip the bundle download. Empty keeps the in-memory cache.
func (e *Extractor) WithPlayerCacheDir(dir string) *Extractor {
	e.options.PlayerCacheDir = dir
	return e
}

// Extract downloads the watch page for videoURL and returns the assembled
// metadata record with every resolved format.
func (e *Extractor) Extract(ctx context.Context, videoURL string) (*types.VideoInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fetcher := e.fetcher()

	players, err := e.playerCache()
	if err != nil {
		return nil, fmt.Errorf("open player cache: %v", err)
	}
	decoder := sigdecode.NewWith(fetcher, players)
	resolver := formats.NewResolver(decoder, fetcher)

	return watchpage.New(fetcher, resolver).Extract(videoURL)
}

// ResolveURL extracts the video and picks one format per the configured
// selector, returning its direct media URL and the full info record.
func (e *Extractor) ResolveURL(ctx context.Context, videoURL string) (string, *types.VideoInfo, error) {
	info, err := e.Extract(ctx, videoURL)
	if err != nil {
		return "", nil, err
	}
	selected := formats.SelectFormat(info.Formats, e.options.FormatSelector, e.options.DesiredExt)
	if selected == nil {
		return "", nil, fmt.Errorf("no suitable format found")
	}
	if selected.URL == "" {
		return "", nil, fmt.Errorf("format %s has no direct URL (protocol %s)", selected.FormatID, selected.Protocol)
	}
	return selected.URL, info, nil
}

func (e *Extractor) fetcher() fetch.Fetcher {
	if e.options.Fetcher != nil {
		return e.options.Fetcher
	}
	f := fetch.NewWith(e.options.ClientConfig)
	if e.options.HTTPClient != nil {
		f.HTTPClient = e.options.HTTPClient
	}
	return f
}

func (e *Extractor) playerCache() (playercache.Cache, error) {
	if e.options.PlayerCacheDir == "" {
		return playercache.NewMemoryCache(), nil
	}
	return playercache.NewFileCache(e.options.PlayerCacheDir)
}
