package vidmine

import (
	"context"
	"strings"
	"testing"

	"github.com/vidmine/vidmine/internal/fetch"
)

const watchPageBody = `<html><body>
<script>var x = 1;;ytplayer.config = {"args":{` +
	`"url_encoded_fmt_stream_map":"itag=22&url=https%3A%2F%2Fr1.example.com%2Fvideoplayback%3Fitag%3D22&type=video%2Fmp4,` +
	`itag=18&url=https%3A%2F%2Fr1.example.com%2Fvideoplayback%3Fitag%3D18&type=video%2Fmp4",` +
	`"player_response":"{\"videoDetails\":{\"title\":\"Facade Test\"}}"` +
	`},"assets":{"js":"\/s\/player\/xyz\/base.js"}};ytplayer.load();</script>
</body></html>`

func pageFetcher(t *testing.T) fetch.Fetcher {
	t.Helper()
	return fetch.Func(func(u string) (string, error) {
		if !strings.Contains(u, "/watch?v=") {
			t.Fatalf("unexpected request: %s", u)
		}
		return watchPageBody, nil
	})
}

func TestExtract(t *testing.T) {
	info, err := New().
		WithFetcher(pageFetcher(t)).
		Extract(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if info.Title != "Facade Test" {
		t.Errorf("Title = %q", info.Title)
	}
	if len(info.Formats) != 2 {
		t.Fatalf("got %d formats, want 2", len(info.Formats))
	}
}

func TestResolveURL(t *testing.T) {
	u, info, err := New().
		WithFetcher(pageFetcher(t)).
		WithFormat("itag=18", "").
		ResolveURL(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("ResolveURL: %v", err)
	}
	if !strings.Contains(u, "itag=18") {
		t.Errorf("URL = %q, want the itag=18 variant", u)
	}
	if info == nil || info.Title != "Facade Test" {
		t.Errorf("info = %+v", info)
	}
}

func TestExtractHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().WithFetcher(pageFetcher(t)).Extract(ctx, "https://www.youtube.com/watch?v=dQw4w9WgXcQ"); err == nil {
		t.Fatal("want error from cancelled context")
	}
}
