// Package hls parses tag-line streaming manifests: either a media playlist
// that directly lists segments, or a master playlist that lists variants
// with bitrate, resolution, codec and rendition-group attributes.
package hls

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/vidmine/vidmine/internal/logger"
	"github.com/vidmine/vidmine/internal/mimeext"
	"github.com/vidmine/vidmine/types"
)

// Hints carry per-manifest defaults applied to every produced format.
type Hints struct {
	Ext        string
	Protocol   string
	Preference int
	IDPrefix   string
	Live       bool
}

var (
	attrRe       = regexp.MustCompile(`([A-Z0-9-]+)=("[^"]*"|[^",]+)(?:,|$)`)
	resolutionRe = regexp.MustCompile(`(\d+)[xX](\d+)`)
	fairplayRe   = regexp.MustCompile(`#EXT-X-SESSION-KEY:.*?URI="skd://`)
)

// parseAttributes splits one directive's attribute list into a map,
// stripping quotes from quoted values.
func parseAttributes(line string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(line, -1) {
		val := m[2]
		if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
			val = val[1 : len(val)-1]
		}
		attrs[m[1]] = val
	}
	return attrs
}

// ParseFormats extracts every format a manifest document describes.
// DRM-protected manifests produce an empty result; a media playlist
// produces exactly one format pointing at the manifest itself.
func ParseFormats(doc, manifestURL string, h Hints) []types.Format {
	log := logger.WithComponent(logger.ComponentHLS)

	// Adobe Flash Access and FairPlay streams cannot be downloaded.
	if strings.Contains(doc, "#EXT-X-FAXS-CM:") {
		return nil
	}
	if fairplayRe.MatchString(doc) {
		return nil
	}

	if strings.Contains(doc, "#EXT-X-TARGETDURATION") {
		return []types.Format{{
			FormatID:   h.IDPrefix,
			URL:        manifestURL,
			Ext:        h.Ext,
			Protocol:   h.Protocol,
			Preference: h.Preference,
		}}
	}

	var formats []types.Format
	groups := make(map[string][]types.Rendition)

	// First pass: rendition groups, plus standalone formats for renditions
	// that carry their own URI.
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#EXT-X-MEDIA:") {
			continue
		}
		attrs := parseAttributes(line)
		mediaType, groupID, name := attrs["TYPE"], attrs["GROUP-ID"], attrs["NAME"]
		if mediaType == "" || groupID == "" || name == "" {
			continue
		}
		r := types.Rendition{
			Type:     mediaType,
			GroupID:  groupID,
			Name:     name,
			Language: attrs["LANGUAGE"],
			URI:      attrs["URI"],
		}
		groups[groupID] = append(groups[groupID], r)
		if mediaType != "AUDIO" && mediaType != "VIDEO" {
			continue
		}
		if r.URI == "" {
			continue
		}
		f := types.Format{
			FormatID:    joinID(h.IDPrefix, groupID, name),
			URL:         resolveURL(manifestURL, r.URI),
			ManifestURL: manifestURL,
			Language:    r.Language,
			Ext:         h.Ext,
			Protocol:    h.Protocol,
			Preference:  h.Preference,
		}
		if mediaType == "AUDIO" {
			f.VCodec = types.CodecNone
		}
		formats = append(formats, f)
	}

	// Second pass: STREAM-INF variants paired with the following URL line.
	var lastStreamInf map[string]string
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
			lastStreamInf = parseAttributes(line)
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		default:
			if lastStreamInf == nil {
				continue
			}
			formats = append(formats, variantFormat(lastStreamInf, line, manifestURL, groups, len(formats), h))
			lastStreamInf = nil
		}
	}
	log.Debug("parsed manifest", map[string]interface{}{
		"url":     manifestURL,
		"formats": len(formats),
	})
	return formats
}

func variantFormat(inf map[string]string, variantURL, manifestURL string, groups map[string][]types.Rendition, position int, h Hints) types.Format {
	var tbr float64
	if bw := firstNonEmpty(inf["AVERAGE-BANDWIDTH"], inf["BANDWIDTH"]); bw != "" {
		if v, err := strconv.ParseFloat(bw, 64); err == nil {
			tbr = v / 1000
		}
	}
	// Bandwidth for a live stream varies over its lifetime, drop it.
	if h.Live {
		tbr = 0
	}

	name := streamName(inf, groups)
	idTail := name
	if idTail == "" {
		if tbr > 0 {
			idTail = strconv.Itoa(int(tbr))
		} else {
			idTail = strconv.Itoa(position)
		}
	}

	f := types.Format{
		FormatID:    joinID(h.IDPrefix, idTail),
		URL:         resolveURL(manifestURL, variantURL),
		ManifestURL: manifestURL,
		TBR:         tbr,
		Ext:         h.Ext,
		Protocol:    h.Protocol,
		Preference:  h.Preference,
	}
	if res := inf["RESOLUTION"]; res != "" {
		if m := resolutionRe.FindStringSubmatch(res); m != nil {
			f.Width, _ = strconv.Atoi(m[1])
			f.Height, _ = strconv.Atoi(m[2])
		}
	}
	if fr := inf["FRAME-RATE"]; fr != "" {
		if v, err := strconv.ParseFloat(fr, 64); err == nil {
			f.FPS = v
		}
	}
	codecs := inf["CODECS"]
	if codecs != "" {
		f.VCodec, f.ACodec = mimeext.ParseCodecs(codecs)
	}
	// A variant that names an audio group while declaring its own codecs is
	// a complete stream; the group's members are alternatives, not a
	// missing audio track.
	if audioGroup := inf["AUDIO"]; audioGroup != "" && codecs != "" && f.HasVideo() {
		if members := groups[audioGroup]; len(members) > 0 && members[0].URI != "" {
			f.ACodec = types.CodecNone
		}
	}
	return f
}

// streamName resolves a display name for a variant: its own NAME attribute,
// else the referenced video group's first member, else the group id.
func streamName(inf map[string]string, groups map[string][]types.Rendition) string {
	if name := inf["NAME"]; name != "" {
		return name
	}
	groupID := inf["VIDEO"]
	if groupID == "" {
		return ""
	}
	if members := groups[groupID]; len(members) > 0 && members[0].Name != "" {
		return members[0].Name
	}
	return groupID
}

func joinID(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "-")
}

func resolveURL(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
