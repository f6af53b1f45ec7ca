package format

import (
	"regexp"
	"strings"
)

// Stderr noise produced by nix: download progress counters and store-copy
// chatter that redraws in place on a terminal but floods captured output.
var sizeProgressPattern = regexp.MustCompile(`^\s*\d+(\.\d+)?\s*(KiB|MiB|GiB|TiB)\b`)

// dropStderrLine reports whether a captured stderr line is transient noise
// that should not appear in the inline display. Filtering only affects the
// display string; archived copies always keep every line.
func dropStderrLine(line string) bool {
	if strings.Contains(line, "experimental-feature") ||
		strings.Contains(line, "experimental Nix feature") {
		return true
	}
	// Progress-bar redraw artifacts carry raw escape or carriage-return bytes.
	if strings.ContainsAny(line, "\x1b\r") {
		return true
	}
	if strings.HasPrefix(line, "copying path") {
		return true
	}
	return sizeProgressPattern.MatchString(line)
}

// FilterStderr removes noise lines from captured stderr, preserving the
// relative order of surviving lines, and trims surrounding whitespace.
func FilterStderr(stderr string) string {
	if stderr == "" {
		return ""
	}
	var kept []string
	for _, line := range strings.Split(stderr, "\n") {
		if dropStderrLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
