package enrich

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// videoIDPattern covers the known URL shapes: the short-link form and the
// canonical watch-page forms (path segment or v= query parameter).
var videoIDPattern = regexp.MustCompile(`(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*)`)

const videoIDLength = 11

// ExtractVideoID pulls the platform video identifier out of a reference URL.
// It returns ok=false when no known shape matches; the caller must keep the
// raw reference in that case, not drop it.
func ExtractVideoID(url string) (string, bool) {
	if url == "" {
		return "", false
	}
	m := videoIDPattern.FindStringSubmatch(url)
	if m == nil || len(m[2]) != videoIDLength {
		return "", false
	}
	return m[2], true
}

var isoDurationPattern = regexp.MustCompile(`PT(\d+H)?(\d+M)?(\d+S)?`)

// FormatDuration renders an ISO-8601 duration token in the compact display
// grammar: optional hours, minutes, seconds, each as <N><unit>. Seconds are
// dropped once hours are present ("1h 4m", "45s").
func FormatDuration(isoDuration string) string {
	m := isoDurationPattern.FindStringSubmatch(isoDuration)
	if m == nil {
		return "N/A"
	}

	hours := strings.TrimSuffix(m[1], "H")
	minutes := strings.TrimSuffix(m[2], "M")
	seconds := strings.TrimSuffix(m[3], "S")

	var b strings.Builder
	if hours != "" {
		b.WriteString(hours + "h ")
	}
	if minutes != "" {
		b.WriteString(minutes + "m ")
	}
	if seconds != "" && hours == "" {
		b.WriteString(seconds + "s")
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "0s"
	}
	return out
}

// AbbreviateCount renders a decimal count with a one-decimal K/M suffix above
// a thousand/a million. Unparseable input renders as "0".
func AbbreviateCount(count string) string {
	n, err := strconv.ParseInt(count, 10, 64)
	if err != nil {
		return "0"
	}

	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}
