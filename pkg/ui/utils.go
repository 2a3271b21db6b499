package ui

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

// wrapWords wraps s at width columns. A non-positive width leaves s as is.
func wrapWords(s string, width int) string {
	if width <= 0 {
		return s
	}
	return strings.TrimRight(wordwrap.String(s, width), "\n")
}
