// Package sigdecode turns a scrambled stream signature back into the form
// the media servers accept. The descrambling function lives inside the site
// player JS bundle; it is located by pattern matching and executed with the
// restricted interpreter, falling back to a full JS engine when the bundle
// uses constructs the interpreter does not cover.
package sigdecode

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/vidmine/vidmine/internal/fetch"
	"github.com/vidmine/vidmine/internal/logger"
	"github.com/vidmine/vidmine/internal/playercache"
	"github.com/vidmine/vidmine/youtube/jsinterp"
)

const ytBase = "https://www.youtube.com"

// sigFnPatterns locate the signature function name inside player JS, in
// order from most to least specific. Group 1 is the function name.
var sigFnPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[cs]\s*&&\s*[adf]\.set\([^,]+\s*,\s*encodeURIComponent\s*\(\s*([a-zA-Z0-9$]+)\(`),
	regexp.MustCompile(`\b[a-zA-Z0-9]+\s*&&\s*[a-zA-Z0-9]+\.set\([^,]+\s*,\s*encodeURIComponent\s*\(\s*([a-zA-Z0-9$]+)\(`),
	regexp.MustCompile(`([a-zA-Z0-9$]+)\s*=\s*function\(\s*a\s*\)\s*\{\s*a\s*=\s*a\.split\(\s*""\s*\)`),
}

// SigFunc descrambles one signature string.
type SigFunc func(sig string) (string, error)

// Decoder downloads player bundles and caches the descrambling function per
// (player URL, example signature) pair. All methods are safe for concurrent
// use; at most one function is built per key.
type Decoder struct {
	fetcher fetch.Fetcher
	players playercache.Cache
	log     *logger.ComponentLogger

	mu    sync.Mutex
	funcs map[string]SigFunc
}

// New creates a Decoder with an in-memory player cache.
func New(fetcher fetch.Fetcher) *Decoder {
	return NewWith(fetcher, playercache.NewMemoryCache())
}

// NewWith creates a Decoder using the provided player cache, e.g. a
// playercache.FileCache shared between runs.
func NewWith(fetcher fetch.Fetcher, players playercache.Cache) *Decoder {
	return &Decoder{
		fetcher: fetcher,
		players: players,
		log:     logger.WithComponent(logger.ComponentSig),
		funcs:   make(map[string]SigFunc),
	}
}

// NormalizePlayerURL resolves the player URL forms seen in page data:
// protocol-relative, site-relative and absolute.
func NormalizePlayerURL(raw string) string {
	switch {
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return ytBase + raw
	}
	return raw
}

// Decode descrambles sig using the function from the given player bundle.
func (d *Decoder) Decode(playerURL, sig string) (string, error) {
	if playerURL == "" {
		return "", NewError(ErrCodePlayerJSNotFound, "no player URL for scrambled signature")
	}
	playerURL = NormalizePlayerURL(playerURL)

	d.mu.Lock()
	defer d.mu.Unlock()

	key := playerURL + " " + sig
	fn, ok := d.funcs[key]
	if !ok {
		var err error
		fn, err = d.buildFunc(playerURL, sig)
		if err != nil {
			return "", err
		}
		d.funcs[key] = fn
	}
	out, err := fn(sig)
	if err != nil {
		return "", NewError(ErrCodeSigFuncFailed, "signature function failed", err.Error())
	}
	d.log.Debug("descrambled signature", map[string]interface{}{
		"player": playerURL,
		"in":     len(sig),
		"out":    len(out),
	})
	return out, nil
}

func (d *Decoder) buildFunc(playerURL, exampleSig string) (SigFunc, error) {
	ext := playerExt(playerURL)
	if ext != "js" {
		return nil, NewError(ErrCodePlayerUnsupported,
			fmt.Sprintf("player type %q is not supported", ext), playerURL)
	}
	body, err := d.playerJS(playerURL)
	if err != nil {
		return nil, err
	}

	fname := findSigFuncName(body)
	if fname == "" {
		return nil, NewError(ErrCodeSigFuncNotFound, "could not find signature function name", playerURL)
	}

	fn, err := interpFunc(body, fname)
	if err == nil {
		// Validate against the example signature before caching.
		if _, verr := fn(exampleSig); verr == nil {
			return fn, nil
		}
	}
	d.log.Debug("interpreter path failed, using JS engine", map[string]interface{}{
		"player": playerURL,
		"func":   fname,
	})
	return engineFunc(body, fname)
}

// playerJS returns the player bundle body, downloading it on cache miss.
func (d *Decoder) playerJS(playerURL string) (string, error) {
	if e, ok := d.players.Get(playerURL); ok {
		return e.Body, nil
	}
	body, err := d.fetcher.Text(playerURL)
	if err != nil {
		return "", NewError(ErrCodePlayerJSDownload, "failed to download player JS", err.Error())
	}
	d.players.Set(playerURL, playercache.WithTTL(body, playercache.DefaultTTL))
	return body, nil
}

func findSigFuncName(body string) string {
	for _, re := range sigFnPatterns {
		if m := re.FindStringSubmatch(body); m != nil {
			return m[1]
		}
	}
	return ""
}

// interpFunc builds a SigFunc over the restricted interpreter.
func interpFunc(body, fname string) (SigFunc, error) {
	itp := jsinterp.New(body)
	fn, err := itp.ExtractFunction(fname)
	if err != nil {
		return nil, err
	}
	return func(sig string) (string, error) {
		v, err := fn([]jsinterp.Value{jsinterp.Str(sig)})
		if err != nil {
			return "", err
		}
		s, ok := v.AsStr()
		if !ok {
			return "", fmt.Errorf("signature function returned %s, want string", v.Kind())
		}
		return s, nil
	}, nil
}

func playerExt(playerURL string) string {
	u := playerURL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if i := strings.LastIndex(u, "."); i >= 0 {
		return u[i+1:]
	}
	return ""
}
