// Package fetch provides the blocking "text of a URL" collaborator the
// extraction pipeline consumes. The HTTP implementation carries a tuned
// transport, a desktop User-Agent and a small retry policy for transient
// failures.
package fetch

import (
	"compress/gzip"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3

	userAgentValue = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 3 * time.Second

	successMinCode   = http.StatusOK
	retryableMinCode = http.StatusInternalServerError
)

// Fetcher returns the body text of a URL, or an error on any I/O failure.
// No retries beyond the implementation's own policy; callers degrade
// gracefully on error.
type Fetcher interface {
	Text(url string) (string, error)
}

// Func adapts a plain function to the Fetcher interface.
type Func func(url string) (string, error)

// Text implements Fetcher.
func (f Func) Text(url string) (string, error) { return f(url) }

// defaultTransport is a tuned HTTP transport reused across clients.
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ResponseHeaderTimeout: 10 * time.Second,
	ForceAttemptHTTP2:     true,
	// Compression is negotiated explicitly so brotli can be handled too.
	DisableCompression: true,
	ReadBufferSize:     16 * 1024,
	WriteBufferSize:    16 * 1024,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// Config holds optional client parameters. Zero values use defaults.
type Config struct {
	Timeout   time.Duration
	Retries   int
	UserAgent string
	ProxyURL  string
}

// HTTPFetcher implements Fetcher over net/http with retry/backoff and
// transparent gzip/deflate/brotli decoding.
type HTTPFetcher struct {
	HTTPClient *http.Client
	Retries    int
	UserAgent  string
}

// New creates an HTTPFetcher with a tuned transport and default settings.
func New() *HTTPFetcher {
	return &HTTPFetcher{
		HTTPClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: defaultTransport,
		},
		Retries:   defaultRetries,
		UserAgent: userAgentValue,
	}
}

// NewWith creates an HTTPFetcher with the provided config. Zero values use
// defaults.
func NewWith(cfg Config) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = userAgentValue
	}

	tr := defaultTransport.Clone()
	if cfg.ProxyURL != "" {
		if u, err := url.Parse(cfg.ProxyURL); err == nil {
			tr.Proxy = http.ProxyURL(u)
		}
	}

	return &HTTPFetcher{
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
		Retries:   retries,
		UserAgent: ua,
	}
}

// Text performs a GET request with a simple retry policy for transient
// errors (HTTP 5xx or network failures) and returns the decoded body.
func (c *HTTPFetcher) Text(rawURL string) (string, error) {
	req, err := http.NewRequest("GET", rawURL, nil)
	if err != nil {
		return "", err
	}
	ua := c.UserAgent
	if ua == "" {
		ua = userAgentValue
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	retries := c.Retries
	if retries < 1 {
		retries = 1
	}
	backoff := initialBackoff
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		resp, err := c.HTTPClient.Do(req)
		if err == nil && resp.StatusCode >= successMinCode && resp.StatusCode < retryableMinCode {
			defer func() { _ = resp.Body.Close() }()
			return readBody(resp)
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = &StatusError{Code: resp.StatusCode, URL: rawURL}
			_ = resp.Body.Close()
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return "", lastErr
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return "fetch " + e.URL + ": status " + http.StatusText(e.Code)
}

func readBody(resp *http.Response) (string, error) {
	var reader io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", err
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
