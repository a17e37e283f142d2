package hls

import (
	"testing"

	"github.com/vidmine/vidmine/types"
)

var defaultHints = Hints{
	Ext:      "mp4",
	Protocol: types.ProtocolHLS,
	IDPrefix: "hls",
}

func TestParseFormatsMediaPlaylist(t *testing.T) {
	doc := "#EXTM3U\n" +
		"#EXT-X-TARGETDURATION:10\n" +
		"#EXTINF:9.009,\n" +
		"segment0.ts\n" +
		"#EXTINF:9.009,\n" +
		"segment1.ts\n"
	manifestURL := "https://cdn.example.com/video/index.m3u8"

	formats := ParseFormats(doc, manifestURL, defaultHints)
	if len(formats) != 1 {
		t.Fatalf("got %d formats, want 1", len(formats))
	}
	f := formats[0]
	if f.URL != manifestURL {
		t.Errorf("URL = %q, want manifest URL", f.URL)
	}
	if f.FormatID != "hls" {
		t.Errorf("FormatID = %q", f.FormatID)
	}
	if f.Protocol != types.ProtocolHLS {
		t.Errorf("Protocol = %q", f.Protocol)
	}
}

func TestParseFormatsMasterPlaylist(t *testing.T) {
	doc := "#EXTM3U\n" +
		`#EXT-X-STREAM-INF:BANDWIDTH=1280000,RESOLUTION=1280x720,FRAME-RATE=30.0,CODECS="avc1.4d401f,mp4a.40.2"` + "\n" +
		"hi/index.m3u8\n" +
		`#EXT-X-STREAM-INF:BANDWIDTH=640000,RESOLUTION=640x360` + "\n" +
		"lo/index.m3u8\n"
	manifestURL := "https://cdn.example.com/video/master.m3u8"

	formats := ParseFormats(doc, manifestURL, defaultHints)
	if len(formats) != 2 {
		t.Fatalf("got %d formats, want 2", len(formats))
	}
	hi, lo := formats[0], formats[1]
	if hi.FormatID == lo.FormatID {
		t.Errorf("format ids not distinct: %q", hi.FormatID)
	}
	if hi.Width != 1280 || hi.Height != 720 {
		t.Errorf("resolution = %dx%d, want 1280x720", hi.Width, hi.Height)
	}
	if hi.TBR != 1280 {
		t.Errorf("TBR = %v, want 1280", hi.TBR)
	}
	if hi.FPS != 30 {
		t.Errorf("FPS = %v, want 30", hi.FPS)
	}
	if hi.VCodec != "avc1.4d401f" || hi.ACodec != "mp4a.40.2" {
		t.Errorf("codecs = %q/%q", hi.VCodec, hi.ACodec)
	}
	if hi.URL != "https://cdn.example.com/video/hi/index.m3u8" {
		t.Errorf("variant URL not resolved: %q", hi.URL)
	}
	if lo.TBR != 640 {
		t.Errorf("lo TBR = %v, want 640", lo.TBR)
	}
	if lo.ManifestURL != manifestURL {
		t.Errorf("ManifestURL = %q", lo.ManifestURL)
	}
}

func TestParseFormatsRenditionGroups(t *testing.T) {
	doc := "#EXTM3U\n" +
		`#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="aud",NAME="English",LANGUAGE="en",URI="audio/en.m3u8"` + "\n" +
		`#EXT-X-STREAM-INF:BANDWIDTH=1280000,RESOLUTION=1280x720,CODECS="avc1.4d401f,mp4a.40.2",AUDIO="aud"` + "\n" +
		"hi/index.m3u8\n"
	manifestURL := "https://cdn.example.com/video/master.m3u8"

	formats := ParseFormats(doc, manifestURL, defaultHints)
	if len(formats) != 2 {
		t.Fatalf("got %d formats, want 2", len(formats))
	}

	audio := formats[0]
	if audio.FormatID != "hls-aud-English" {
		t.Errorf("audio FormatID = %q", audio.FormatID)
	}
	if audio.VCodec != types.CodecNone {
		t.Errorf("audio VCodec = %q, want none", audio.VCodec)
	}
	if audio.Language != "en" {
		t.Errorf("audio Language = %q", audio.Language)
	}
	if audio.URL != "https://cdn.example.com/video/audio/en.m3u8" {
		t.Errorf("audio URL = %q", audio.URL)
	}

	variant := formats[1]
	if variant.ACodec != types.CodecNone {
		t.Errorf("variant ACodec = %q, want none (audio comes from the group)", variant.ACodec)
	}
	if variant.VCodec != "avc1.4d401f" {
		t.Errorf("variant VCodec = %q", variant.VCodec)
	}
}

func TestParseFormatsStreamNameFromVideoGroup(t *testing.T) {
	doc := "#EXTM3U\n" +
		`#EXT-X-MEDIA:TYPE=VIDEO,GROUP-ID="vid",NAME="720p"` + "\n" +
		`#EXT-X-STREAM-INF:BANDWIDTH=1280000,VIDEO="vid"` + "\n" +
		"hi/index.m3u8\n"

	formats := ParseFormats(doc, "https://cdn.example.com/master.m3u8", defaultHints)
	if len(formats) != 1 {
		t.Fatalf("got %d formats, want 1", len(formats))
	}
	if formats[0].FormatID != "hls-720p" {
		t.Errorf("FormatID = %q, want hls-720p", formats[0].FormatID)
	}
}

func TestParseFormatsDRM(t *testing.T) {
	docs := map[string]string{
		"flash access": "#EXTM3U\n#EXT-X-FAXS-CM:MII...\n#EXT-X-STREAM-INF:BANDWIDTH=1\nv.m3u8\n",
		"fairplay":     "#EXTM3U\n" + `#EXT-X-SESSION-KEY:METHOD=SAMPLE-AES,URI="skd://key"` + "\n",
	}
	for name, doc := range docs {
		if got := ParseFormats(doc, "https://cdn.example.com/master.m3u8", defaultHints); len(got) != 0 {
			t.Errorf("%s: got %d formats, want 0", name, len(got))
		}
	}
}

func TestParseFormatsLiveDropsBitrate(t *testing.T) {
	doc := "#EXTM3U\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=1280000\n" +
		"hi/index.m3u8\n"
	h := defaultHints
	h.Live = true

	formats := ParseFormats(doc, "https://cdn.example.com/master.m3u8", h)
	if len(formats) != 1 {
		t.Fatalf("got %d formats, want 1", len(formats))
	}
	if formats[0].TBR != 0 {
		t.Errorf("TBR = %v, want 0 for live", formats[0].TBR)
	}
	// The positional fallback id is used when no name or bitrate is known.
	if formats[0].FormatID != "hls-0" {
		t.Errorf("FormatID = %q, want hls-0", formats[0].FormatID)
	}
}
