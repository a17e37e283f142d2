package htmlutil

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	colonDurationRe = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{1,2}(?:\.\d+)?)$`)
	isoDurationRe   = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)
)

// ParseDuration converts a human duration string ("1:23:45", "12:34",
// "PT1M30S", "90") into seconds. The boolean is false when the string is
// not a recognizable duration.
func ParseDuration(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if m := colonDurationRe.FindStringSubmatch(s); m != nil {
		var hours, mins, secs float64
		if m[1] != "" {
			hours, _ = strconv.ParseFloat(m[1], 64)
		}
		mins, _ = strconv.ParseFloat(m[2], 64)
		secs, _ = strconv.ParseFloat(m[3], 64)
		return hours*3600 + mins*60 + secs, true
	}

	if m := isoDurationRe.FindStringSubmatch(s); m != nil && s != "P" {
		var total float64
		for i, mult := range []float64{86400, 3600, 60, 1} {
			if m[i+1] == "" {
				continue
			}
			v, _ := strconv.ParseFloat(m[i+1], 64)
			total += v * mult
		}
		return total, true
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	return 0, false
}

var dateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"20060102",
}

// UnifiedStrDate normalizes a scraped date string to YYYYMMDD, returning ""
// when no known layout matches.
func UnifiedStrDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// Drop a trailing time-of-day or timezone chunk if present.
	if i := strings.Index(s, " at "); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, " UTC")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("20060102")
		}
	}
	return ""
}
