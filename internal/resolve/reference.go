package resolve

import (
	"strings"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// ParseReference extracts the figure number from a reference such as
// "Figure 2: memory usage" or "Fig. S3". The number is the longest run of
// digits before the first colon. A head without digits falls back to the text
// after the colon only when that text is a bare number ("Figure: 7").
// Ties go to the leftmost run.
func ParseReference(raw string) types.FigureReference {
	ref := types.FigureReference{RawText: raw}

	head, tail, hasColon := strings.Cut(raw, ":")
	start, end := longestDigitRun(head)
	scope := head
	if start < 0 && hasColon && isBareNumber(strings.TrimSpace(tail)) {
		scope = strings.TrimSpace(tail)
		start, end = longestDigitRun(scope)
	}
	if start < 0 {
		return ref
	}

	ref.Number = scope[start:end]
	ref.Supplementary = isSupplementary(scope, start)
	return ref
}

// longestDigitRun returns the byte range of the longest ASCII digit run, or -1
func longestDigitRun(s string) (int, int) {
	bestStart, bestEnd := -1, -1
	for i := 0; i < len(s); {
		if !isDigit(s[i]) {
			i++
			continue
		}
		j := i
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j-i > bestEnd-bestStart {
			bestStart, bestEnd = i, j
		}
		i = j
	}
	return bestStart, bestEnd
}

// isSupplementary detects "S3"-style numbering and explicit "Supplementary" wording
func isSupplementary(scope string, digitsAt int) bool {
	if digitsAt > 0 && (scope[digitsAt-1] == 'S' || scope[digitsAt-1] == 's') {
		// "Fig. S3" but not "Figs3" style words ending in s
		if digitsAt == 1 || !isLetter(scope[digitsAt-2]) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(scope), "supplementary")
}

// isBareNumber matches "7" and "S7"
func isBareNumber(s string) bool {
	if len(s) > 1 && (s[0] == 'S' || s[0] == 's') {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
