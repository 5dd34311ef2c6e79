package models

import "regexp"

// SubjectColors is the palette new subjects cycle through.
var SubjectColors = []string{
	"#3b82f6", "#ef4444", "#a855f7", "#22c55e", "#f59e0b",
	"#06b6d4", "#ec4899", "#84cc16", "#14b8a6", "#6366f1",
	"#f97316", "#64748b",
}

var hexColorRE = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}){1,2}$`)

// IsHexColor reports whether s is a #rgb, #rgba, #rrggbb or #rrggbbaa colour.
func IsHexColor(s string) bool {
	return hexColorRE.MatchString(s)
}

// PaletteColor returns the palette entry for the n-th subject.
func PaletteColor(n int) string {
	if n < 0 {
		n = -n
	}
	return SubjectColors[n%len(SubjectColors)]
}
