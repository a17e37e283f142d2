package formats

import (
	"strconv"
	"strings"

	"github.com/vidmine/vidmine/types"
)

// SelectFormat chooses the best format according to criteria.
// Supported selectors:
//   - ext: container extension ("mp4", "webm")
//   - itag=NN: specific format by identifier (e.g., "itag=22" for 720p MP4)
//   - best: highest quality (height, then bitrate)
//   - worst: lowest quality
//   - height<=NNN: height no more than NNN (e.g., "height<=720")
//   - height>=NNN: height no less than NNN (e.g., "height>=480")
//
// If selector is absent or no match found, heuristic is used:
// prefer itag 22 (720p MP4), then itag 18 (360p MP4),
// then progressive mp4 with h264/avc1, else first available.
func SelectFormat(formats []types.Format, quality, ext string) *types.Format {
	if len(formats) == 0 {
		return nil
	}

	// filter by extension if provided
	filtered := make([]types.Format, 0, len(formats))
	for i := range formats {
		if extEquals(formats[i], ext) {
			filtered = append(filtered, formats[i])
		}
	}
	if len(filtered) == 0 {
		filtered = append(filtered, formats...)
	}

	q := strings.TrimSpace(strings.ToLower(quality))
	// explicit itag selector
	if strings.HasPrefix(q, "itag=") {
		id := strings.TrimPrefix(q, "itag=")
		for i := range filtered {
			if filtered[i].FormatID == id {
				return &filtered[i]
			}
		}
	}

	// height constraints
	var minH, maxH int
	if strings.HasPrefix(q, "height<=") {
		if v, err := strconv.Atoi(strings.TrimPrefix(q, "height<=")); err == nil {
			maxH = v
		}
	}
	if strings.HasPrefix(q, "height>=") {
		if v, err := strconv.Atoi(strings.TrimPrefix(q, "height>=")); err == nil {
			minH = v
		}
	}
	if minH > 0 || maxH > 0 {
		tmp := filtered[:0]
		for i := range filtered {
			if withinHeight(filtered[i], minH, maxH) {
				tmp = append(tmp, filtered[i])
			}
		}
		if len(tmp) > 0 {
			filtered = tmp
		}
	}

	// best/worst using height then bitrate
	if q == "best" || q == "worst" {
		pick := filtered[0]
		for _, f := range filtered[1:] {
			if q == "best" && betterByHeightThenBitrate(f, pick) {
				pick = f
			}
			if q == "worst" && betterByHeightThenBitrate(pick, f) {
				pick = f
			}
		}
		return &pick
	}

	// Backward compatibility: itag 22 -> 18
	for _, id := range []string{"22", "18"} {
		for i := range filtered {
			if filtered[i].FormatID == id {
				return &filtered[i]
			}
		}
	}

	// progressive mp4 with both tracks preference
	for i := range filtered {
		if isProgressiveMP4(filtered[i]) {
			return &filtered[i]
		}
	}
	// prefer any with direct URL
	for i := range filtered {
		if hasDirectURL(filtered[i]) {
			return &filtered[i]
		}
	}
	// fallback
	return &filtered[0]
}
