package formats

import (
	"strings"

	"github.com/vidmine/vidmine/types"
)

// hasDirectURL returns true when the format already contains a resolvable URL.
func hasDirectURL(format types.Format) bool {
	return strings.TrimSpace(format.URL) != ""
}

// extEquals checks that the format's container extension equals desiredExt.
// The desiredExt is case-insensitive and may start with a dot.
// If desiredExt is empty, the function returns true (no filtering).
func extEquals(format types.Format, desiredExt string) bool {
	desired := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(desiredExt)), ".")
	if desired == "" {
		return true
	}
	return strings.ToLower(format.Ext) == desired
}

// withinHeight checks whether the format's height is within [minHeight, maxHeight].
// If a bound equals 0, that constraint is ignored (e.g., minHeight=0,
// maxHeight=720 means "any height up to 720p").
func withinHeight(format types.Format, minHeight, maxHeight int) bool {
	if minHeight <= 0 && maxHeight <= 0 {
		return true
	}
	if minHeight > 0 && format.Height < minHeight {
		return false
	}
	if maxHeight > 0 && format.Height > maxHeight {
		return false
	}
	return true
}

// betterByHeightThenBitrate reports whether candidate beats current using
// height as primary criterion and total bitrate as a tiebreaker.
func betterByHeightThenBitrate(candidate, current types.Format) bool {
	if candidate.Height != current.Height {
		return candidate.Height > current.Height
	}
	return candidate.TBR > current.TBR
}

// isProgressiveMP4 reports an mp4 format carrying both tracks over plain HTTP.
func isProgressiveMP4(format types.Format) bool {
	if format.Ext != "mp4" || format.Protocol == types.ProtocolHLS {
		return false
	}
	return format.HasVideo() && format.HasAudio()
}
