package restructure

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var illegalNameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// Sanitize turns a group display name into a filename segment: NFC form,
// filesystem-illegal characters dropped, spaces replaced with underscores.
// Dropped characters are not escaped, so distinct names can collide.
func Sanitize(name string) string {
	name = norm.NFC.String(name)
	name = illegalNameChars.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.TrimSpace(name)
}

// GroupFilename is the file a group at index is written to: 1-based two-digit
// position, then the name segment.
func GroupFilename(index int, name string) string {
	return fmt.Sprintf("%02d_%s.json", index+1, segment(index, name))
}

// segment is the sanitized name, or group_<index> when nothing is left.
func segment(index int, name string) string {
	if safe := Sanitize(name); safe != "" {
		return safe
	}
	return fallbackName(index)
}

func fallbackName(index int) string {
	return fmt.Sprintf("group_%d", index)
}
