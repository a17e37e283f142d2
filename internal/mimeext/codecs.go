package mimeext

import (
	"regexp"
	"strings"
)

var (
	videoCodecPrefixes = []string{
		"avc1", "avc2", "avc3", "avc4", "h263", "h264", "h265", "hev1",
		"hvc1", "mp4v", "vp08", "vp09", "vp8", "vp9", "av01", "theora",
	}
	audioCodecPrefixes = []string{
		"mp4a", "opus", "vorbis", "aac", "mp3", "ac-3", "ec-3", "eac3",
		"dtse", "dts",
	}

	mimeParamRe = regexp.MustCompile(`([a-zA-Z_-]+)=(["']?)(.+?)(["']?)(?:;|$)`)
)

// ParseCodecs splits a codecs declaration (the value of a codecs= MIME
// parameter, e.g. "avc1.64001F, mp4a.40.2") into video and audio codec
// strings. A single unclassifiable codec is assumed to be video.
func ParseCodecs(codecs string) (vcodec, acodec string) {
	parts := strings.Split(codecs, ",")
	var unknown []string
	for _, p := range parts {
		c := strings.TrimSpace(p)
		if c == "" {
			continue
		}
		switch {
		case hasAnyPrefix(c, videoCodecPrefixes):
			if vcodec == "" {
				vcodec = c
			}
		case hasAnyPrefix(c, audioCodecPrefixes):
			if acodec == "" {
				acodec = c
			}
		default:
			unknown = append(unknown, c)
		}
	}
	if vcodec == "" && acodec == "" && len(unknown) == 1 {
		vcodec = unknown[0]
	}
	return vcodec, acodec
}

// CodecsParam extracts the codecs= parameter from a MIME-type-like string
// ("video/mp4; codecs=\"avc1.42001E, mp4a.40.2\""). Returns "" when absent.
func CodecsParam(mimeType string) string {
	for _, m := range mimeParamRe.FindAllStringSubmatch(mimeType, -1) {
		if m[1] == "codecs" {
			return strings.Trim(m[3], `"'`)
		}
	}
	return ""
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
