package enrich

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		wantID string
		wantOK bool
	}{
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch page", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch with extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", true},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"secondary v param", "https://www.youtube.com/watch?x=1&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short link with fragment", "https://youtu.be/dQw4w9WgXcQ#start", "dQw4w9WgXcQ", true},
		{"not a video url", "https://vimeo.com/12345678", "", false},
		{"id too short", "https://youtu.be/short", "", false},
		{"id too long", "https://youtu.be/waytoolongvideoid", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractVideoID(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("ExtractVideoID(%q) ok = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if id != tt.wantID {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.url, id, tt.wantID)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		iso  string
		want string
	}{
		{"PT1H4M13S", "1h 4m"},
		{"PT1H4M", "1h 4m"},
		{"PT2H", "2h"},
		{"PT15M33S", "15m 33s"},
		{"PT45S", "45s"},
		{"PT0S", "0s"},
		{"PT", "0s"},
		{"garbage", "N/A"},
		{"", "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.iso, func(t *testing.T) {
			if got := FormatDuration(tt.iso); got != tt.want {
				t.Errorf("FormatDuration(%q) = %q, want %q", tt.iso, got, tt.want)
			}
		})
	}
}

func TestAbbreviateCount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"999", "999"},
		{"1000", "1.0K"},
		{"16800", "16.8K"},
		{"999999", "1000.0K"},
		{"1000000", "1.0M"},
		{"1530000", "1.5M"},
		{"not-a-number", "0"},
		{"", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := AbbreviateCount(tt.in); got != tt.want {
				t.Errorf("AbbreviateCount(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestProperty_FormatDuration_DropsSecondsWithHours(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		hours := rapid.IntRange(1, 23).Draw(rt, "hours")
		minutes := rapid.IntRange(0, 59).Draw(rt, "minutes")
		seconds := rapid.IntRange(1, 59).Draw(rt, "seconds")

		iso := fmt.Sprintf("PT%dH%dM%dS", hours, minutes, seconds)
		got := FormatDuration(iso)

		if strings.Contains(got, "s") {
			rt.Fatalf("FormatDuration(%q) = %q still shows seconds", iso, got)
		}
		if !strings.HasPrefix(got, fmt.Sprintf("%dh", hours)) {
			rt.Fatalf("FormatDuration(%q) = %q lost the hours", iso, got)
		}
	})
}

func TestProperty_AbbreviateCount_Thresholds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.Int64Range(0, 100_000_000).Draw(rt, "n")
		got := AbbreviateCount(strconv.FormatInt(n, 10))

		switch {
		case n >= 1_000_000:
			if !strings.HasSuffix(got, "M") {
				rt.Fatalf("AbbreviateCount(%d) = %q, want M suffix", n, got)
			}
		case n >= 1_000:
			if !strings.HasSuffix(got, "K") {
				rt.Fatalf("AbbreviateCount(%d) = %q, want K suffix", n, got)
			}
		default:
			if got != strconv.FormatInt(n, 10) {
				rt.Fatalf("AbbreviateCount(%d) = %q, want verbatim", n, got)
			}
		}
	})
}
