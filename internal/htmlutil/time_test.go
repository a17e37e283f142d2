package htmlutil

import "testing"

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12:34", 754, true},
		{"1:02:03", 3723, true},
		{"0:00", 0, true},
		{"PT1M30S", 90, true},
		{"PT1H", 3600, true},
		{"P1DT2H", 93600, true},
		{"90", 90, true},
		{"90.5", 90.5, true},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseDuration(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestUnifiedStrDate(t *testing.T) {
	tests := []struct{ in, want string }{
		{"2019-04-23", "20190423"},
		{"Apr 23, 2019", "20190423"},
		{"April 23, 2019", "20190423"},
		{"23 Apr 2019", "20190423"},
		{"2019/04/23", "20190423"},
		{"Jan 2, 2006 at 3:04 PM", "20060102"},
		{"  20190423  ", "20190423"},
		{"", ""},
		{"not a date", ""},
	}
	for _, tt := range tests {
		if got := UnifiedStrDate(tt.in); got != tt.want {
			t.Errorf("UnifiedStrDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
