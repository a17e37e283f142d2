package formats

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/vidmine/vidmine/errs"
	"github.com/vidmine/vidmine/internal/fetch"
	"github.com/vidmine/vidmine/types"
)

const testPlayerURL = "https://www.youtube.com/s/player/x/base.js"

// fakeDecoder reverses signatures and uppercases n values so tests can see
// exactly which transform ran.
type fakeDecoder struct {
	decodeCalls int
}

func (d *fakeDecoder) Decode(playerURL, sig string) (string, error) {
	d.decodeCalls++
	if sig == "bad" {
		return "", errors.New("no descrambling pattern matched")
	}
	b := []byte(sig)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b), nil
}

func (d *fakeDecoder) DecodeN(playerURL, nval string) (string, error) {
	return strings.ToUpper(nval), nil
}

func failingFetcher(t *testing.T) fetch.Fetcher {
	return fetch.Func(func(url string) (string, error) {
		t.Errorf("unexpected fetch of %q", url)
		return "", errors.New("unexpected fetch")
	})
}

func newTestResolver(t *testing.T) *Resolver {
	return NewResolver(&fakeDecoder{}, failingFetcher(t))
}

func queryOf(t *testing.T, rawURL string) url.Values {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse %q: %v", rawURL, err)
	}
	return u.Query()
}

const streamingDataJSON = `{
	"streamingData": {
		"formats": [
			{"itag": 22, "url": "https://r1.example.com/videoplayback?id=22&n=abc",
			 "mimeType": "video/mp4; codecs=\"avc1.64001F, mp4a.40.2\"",
			 "width": 1280, "height": 720, "fps": 30, "bitrate": 2000000,
			 "qualityLabel": "720p", "contentLength": "12345678"}
		],
		"adaptiveFormats": [
			{"itag": 140, "mimeType": "audio/mp4; codecs=\"mp4a.40.2\"",
			 "averageBitrate": 130000,
			 "signatureCipher": "s=abc&sp=sig&url=https%3A%2F%2Fr1.example.com%2Fvideoplayback%3Fid%3D140"}
		]
	}
}`

func TestReconcileStreamingData(t *testing.T) {
	r := newTestResolver(t)

	got, err := r.Reconcile(Input{
		PlayerResponseJSON: streamingDataJSON,
		PlayerURL:          testPlayerURL,
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d formats, want 2", len(got))
	}

	prog := got[0]
	if prog.FormatID != "22" {
		t.Errorf("FormatID = %q, want 22", prog.FormatID)
	}
	q := queryOf(t, prog.URL)
	if q.Get("n") != "ABC" {
		t.Errorf("n = %q, want transformed ABC", q.Get("n"))
	}
	if q.Get("ratebypass") != "yes" {
		t.Errorf("ratebypass = %q, want yes", q.Get("ratebypass"))
	}
	if prog.Ext != "mp4" || prog.VCodec != "avc1.64001F" || prog.ACodec != "mp4a.40.2" {
		t.Errorf("ext/codecs = %q/%q/%q", prog.Ext, prog.VCodec, prog.ACodec)
	}
	if prog.Width != 1280 || prog.Height != 720 || prog.FPS != 30 {
		t.Errorf("dimensions = %dx%d@%v", prog.Width, prog.Height, prog.FPS)
	}
	if prog.TBR != 2000 {
		t.Errorf("TBR = %v, want 2000", prog.TBR)
	}
	if prog.Filesize != 12345678 {
		t.Errorf("Filesize = %d", prog.Filesize)
	}
	if prog.ChunkedDownload {
		t.Error("progressive format flagged for chunked download")
	}
	if prog.PlayerURL != testPlayerURL {
		t.Errorf("PlayerURL = %q", prog.PlayerURL)
	}

	audio := got[1]
	if audio.FormatID != "140" {
		t.Errorf("FormatID = %q, want 140", audio.FormatID)
	}
	q = queryOf(t, audio.URL)
	if q.Get("sig") != "cba" {
		t.Errorf("sig = %q, want descrambled cba", q.Get("sig"))
	}
	if audio.Ext != "m4a" {
		t.Errorf("Ext = %q, want m4a", audio.Ext)
	}
	if audio.VCodec != types.CodecNone || audio.ACodec != "mp4a.40.2" {
		t.Errorf("codecs = %q/%q", audio.VCodec, audio.ACodec)
	}
	if audio.TBR != 130 {
		t.Errorf("TBR = %v, want 130", audio.TBR)
	}
	// ABR and format note come from the lookup table.
	if audio.ABR != 128 || audio.FormatNote != "DASH audio" {
		t.Errorf("table backfill: ABR=%v note=%q", audio.ABR, audio.FormatNote)
	}
	if !audio.ChunkedDownload {
		t.Error("audio-only format not flagged for chunked download")
	}
}

func TestReconcileLegacyStreamMap(t *testing.T) {
	r := newTestResolver(t)

	streamMap := "itag=22&url=https%3A%2F%2Fr2.example.com%2Fvideoplayback%3Fitag%3D22" +
		"&sig=SIGVALUE&type=video%2Fmp4%3B%20codecs%3D%22avc1.64001F%2C%20mp4a.40.2%22" +
		",itag=43&url=https%3A%2F%2Fr2.example.com%2Fvideoplayback%3Fitag%3D43&bitrate=2147483647"

	got, err := r.Reconcile(Input{
		VideoInfo: map[string][]string{"url_encoded_fmt_stream_map": {streamMap}},
		PlayerURL: testPlayerURL,
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d formats, want 2", len(got))
	}

	f22 := got[0]
	q := queryOf(t, f22.URL)
	if q.Get("signature") != "SIGVALUE" {
		t.Errorf("signature = %q, want plain sig carried over", q.Get("signature"))
	}
	if q.Get("ratebypass") != "yes" {
		t.Errorf("ratebypass = %q, want yes", q.Get("ratebypass"))
	}
	if f22.VCodec != "avc1.64001F" || f22.ACodec != "mp4a.40.2" {
		t.Errorf("codecs = %q/%q", f22.VCodec, f22.ACodec)
	}

	f43 := got[1]
	// The bitrate field of this variant is a placeholder, never real.
	if f43.TBR != 0 {
		t.Errorf("TBR = %v, want 0", f43.TBR)
	}
	if f43.Ext != "webm" || f43.Width != 640 || f43.Height != 360 {
		t.Errorf("table backfill: ext=%q %dx%d", f43.Ext, f43.Width, f43.Height)
	}
}

func TestReconcileMergesDuplicateItags(t *testing.T) {
	r := newTestResolver(t)

	// The same variant arriving from both the structured block and the
	// legacy stream map must yield one record, keeping the first source's
	// fields and filling gaps from the duplicate.
	doc := `{
		"streamingData": {
			"formats": [
				{"itag": 22, "url": "https://r1.example.com/videoplayback?id=22",
				 "width": 1280, "height": 720}
			]
		}
	}`
	streamMap := "itag=22&url=https%3A%2F%2Fr2.example.com%2Fvideoplayback%3Fitag%3D22&quality_label=720p"

	got, err := r.Reconcile(Input{
		PlayerResponseJSON: doc,
		VideoInfo:          map[string][]string{"url_encoded_fmt_stream_map": {streamMap}},
		PlayerURL:          testPlayerURL,
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d formats, want 1", len(got))
	}
	f := got[0]
	if f.FormatID != "22" {
		t.Errorf("FormatID = %q, want 22", f.FormatID)
	}
	if !strings.Contains(f.URL, "r1.example.com") {
		t.Errorf("URL = %q, want the first source's URL kept", f.URL)
	}
	if f.Width != 1280 || f.Height != 720 {
		t.Errorf("resolution = %dx%d, want 1280x720", f.Width, f.Height)
	}
	if f.FormatNote != "720p" {
		t.Errorf("FormatNote = %q, want gap filled from the duplicate", f.FormatNote)
	}
}

func TestReconcileFmtListBackfill(t *testing.T) {
	r := newTestResolver(t)

	got, err := r.Reconcile(Input{
		VideoInfo: map[string][]string{
			"url_encoded_fmt_stream_map": {"itag=36&url=https%3A%2F%2Fr2.example.com%2Fvideoplayback%3Fitag%3D36"},
			"fmt_list":                   {"36/320x240/9/0/115"},
		},
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d formats, want 1", len(got))
	}
	if got[0].Width != 320 || got[0].Height != 240 {
		t.Errorf("resolution = %dx%d, want 320x240", got[0].Width, got[0].Height)
	}
}

func TestReconcileSkipsFailingCandidates(t *testing.T) {
	r := newTestResolver(t)

	doc := `{
		"streamingData": {
			"formats": [
				{"itag": 18, "url": "https://r1.example.com/videoplayback?id=18",
				 "mimeType": "video/mp4; codecs=\"avc1.42001E, mp4a.40.2\""},
				{"itag": 22, "type": "FORMAT_STREAM_TYPE_OTF",
				 "url": "https://r1.example.com/videoplayback?id=22"},
				{"itag": 137,
				 "signatureCipher": "s=bad&url=https%3A%2F%2Fr1.example.com%2Fvideoplayback%3Fid%3D137"}
			]
		}
	}`

	got, err := r.Reconcile(Input{PlayerResponseJSON: doc, PlayerURL: testPlayerURL})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d formats, want 1 (segmented and undecodable variants skipped)", len(got))
	}
	if got[0].FormatID != "18" {
		t.Errorf("FormatID = %q, want 18", got[0].FormatID)
	}
}

func TestReconcileDRM(t *testing.T) {
	r := newTestResolver(t)

	doc := `{
		"streamingData": {
			"formats": [
				{"itag": 22, "url": "https://r1.example.com/videoplayback?id=22",
				 "drmFamilies": ["widevine"]}
			]
		}
	}`

	_, err := r.Reconcile(Input{PlayerResponseJSON: doc})
	if !errors.Is(err, errs.ErrDRMProtected) {
		t.Errorf("err = %v, want DRM protected", err)
	}
}

func TestReconcileRtmpe(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.Reconcile(Input{
		VideoInfo: map[string][]string{
			"url_encoded_fmt_stream_map": {"itag=22&url=x&conn=rtmpe%3Dyes"},
		},
	})
	if !errors.Is(err, errs.ErrUnsupportedFeature) {
		t.Errorf("err = %v, want unsupported feature", err)
	}
}

func TestReconcileRTMP(t *testing.T) {
	r := newTestResolver(t)

	got, err := r.Reconcile(Input{
		VideoInfo: map[string][]string{"conn": {"rtmp://stream.example.com/live"}},
		PlayerURL: testPlayerURL,
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d formats, want 1", len(got))
	}
	if got[0].Protocol != types.ProtocolRTMP {
		t.Errorf("Protocol = %q, want rtmp", got[0].Protocol)
	}
	if got[0].URL != "rtmp://stream.example.com/live" {
		t.Errorf("URL = %q", got[0].URL)
	}
}

func TestReconcileManifestFallback(t *testing.T) {
	manifest := "#EXTM3U\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=1280000,RESOLUTION=1280x720\n" +
		"https://cdn.example.com/hls/itag/95/playlist.m3u8\n"
	var fetched string
	r := NewResolver(&fakeDecoder{}, fetch.Func(func(url string) (string, error) {
		fetched = url
		return manifest, nil
	}))

	doc := `{"streamingData": {"hlsManifestUrl": "https://cdn.example.com/hls/master.m3u8"}}`
	got, err := r.Reconcile(Input{
		PlayerResponseJSON: doc,
		PlayerURL:          testPlayerURL,
		IsLive:             true,
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if fetched != "https://cdn.example.com/hls/master.m3u8" {
		t.Errorf("fetched %q", fetched)
	}
	if len(got) != 1 {
		t.Fatalf("got %d formats, want 1", len(got))
	}
	f := got[0]
	if f.FormatID != "95" {
		t.Errorf("FormatID = %q, want itag recovered from URL", f.FormatID)
	}
	if f.ACodec != "aac" || f.VCodec != "h264" || f.Preference != -10 {
		t.Errorf("table backfill: %q/%q pref %d", f.ACodec, f.VCodec, f.Preference)
	}
	// Resolution from the manifest wins over the table.
	if f.Width != 1280 || f.Height != 720 {
		t.Errorf("resolution = %dx%d", f.Width, f.Height)
	}
	if f.PlayerURL != testPlayerURL {
		t.Errorf("PlayerURL = %q", f.PlayerURL)
	}
}

func TestReconcileUnavailable(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.Reconcile(Input{UnavailableReason: "This video is private."})
	if !errors.Is(err, errs.ErrContentUnavailable) {
		t.Fatalf("err = %v, want content unavailable", err)
	}
	if !strings.Contains(err.Error(), "This video is private.") {
		t.Errorf("err %q does not carry the page reason", err)
	}
}

func TestSelectFormat(t *testing.T) {
	list := []types.Format{
		{FormatID: "18", Ext: "mp4", Height: 360, TBR: 500, URL: "u18", VCodec: "avc1", ACodec: "mp4a"},
		{FormatID: "22", Ext: "mp4", Height: 720, TBR: 1200, URL: "u22", VCodec: "avc1", ACodec: "mp4a"},
		{FormatID: "43", Ext: "webm", Height: 360, TBR: 600, URL: "u43", VCodec: "vp8", ACodec: "vorbis"},
	}

	tests := []struct {
		name    string
		quality string
		ext     string
		want    string
	}{
		{"default prefers 22", "", "", "22"},
		{"best by height", "best", "", "22"},
		{"worst by height", "worst", "", "18"},
		{"explicit itag", "itag=43", "", "43"},
		{"height cap", "height<=360", "mp4", "18"},
		{"ext filter", "", "webm", "43"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectFormat(list, tt.quality, tt.ext)
			if got == nil {
				t.Fatal("SelectFormat returned nil")
			}
			if got.FormatID != tt.want {
				t.Errorf("SelectFormat(%q, %q) = %q, want %q", tt.quality, tt.ext, got.FormatID, tt.want)
			}
		})
	}

	if SelectFormat(nil, "best", "") != nil {
		t.Error("SelectFormat(nil) != nil")
	}
}
