package mimeext

import "testing"

func TestParseCodecs(t *testing.T) {
	tests := []struct {
		in     string
		vcodec string
		acodec string
	}{
		{"avc1.64001F, mp4a.40.2", "avc1.64001F", "mp4a.40.2"},
		{"vp9", "vp9", ""},
		{"opus", "", "opus"},
		{"av01.0.05M.08", "av01.0.05M.08", ""},
		// A single unclassifiable codec is assumed to be video.
		{"something.new", "something.new", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		v, a := ParseCodecs(tt.in)
		if v != tt.vcodec || a != tt.acodec {
			t.Errorf("ParseCodecs(%q) = %q, %q, want %q, %q", tt.in, v, a, tt.vcodec, tt.acodec)
		}
	}
}

func TestCodecsParam(t *testing.T) {
	tests := []struct{ in, want string }{
		{`video/mp4; codecs="avc1.42001E, mp4a.40.2"`, "avc1.42001E, mp4a.40.2"},
		{`audio/webm; codecs=opus`, "opus"},
		{`video/mp4`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		if got := CodecsParam(tt.in); got != tt.want {
			t.Errorf("CodecsParam(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
