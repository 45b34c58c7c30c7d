package layout

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultWidth is the wrap budget in characters when none is configured.
const DefaultWidth = 40

// Wrap breaks text into lines of at most width characters. Runs of
// whitespace collapse to one space. Words longer than width are cut at the
// width boundary with no hyphen, so no line ever exceeds the budget. The
// count is in runes of the NFC-normalized text, so a decomposed "é" from a
// spreadsheet counts once.
func Wrap(text string, width int) []string {
	if width <= 0 {
		width = DefaultWidth
	}

	var (
		lines []string
		cur   []rune
	)
	flush := func() {
		lines = append(lines, string(cur))
		cur = cur[:0]
	}

	for _, word := range strings.Fields(norm.NFC.String(text)) {
		w := []rune(word)
		for len(w) > 0 {
			sep := 0
			if len(cur) > 0 {
				sep = 1
			}

			if len(cur)+sep+len(w) <= width {
				if sep == 1 {
					cur = append(cur, ' ')
				}
				cur = append(cur, w...)
				w = nil
				break
			}

			if len(w) > width {
				// fill what is left of the current line with the head of the word
				if room := width - len(cur) - sep; room > 0 {
					if sep == 1 {
						cur = append(cur, ' ')
					}
					cur = append(cur, w[:room]...)
					w = w[room:]
				}
			}
			flush()
		}
	}

	if len(cur) > 0 {
		flush()
	}
	return lines
}
