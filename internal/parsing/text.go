package parsing

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// numericOnly matches names made of digits and punctuation only
	numericOnly = regexp.MustCompile(`^[\d\s:/.,()\-*]+$`)
	hangulRun   = regexp.MustCompile(`[\x{AC00}-\x{D7AF}]{2,}`)
	latinRun    = regexp.MustCompile(`[a-zA-Z]{3,}`)
)

func isHangul(r rune) bool {
	return r >= 0xAC00 && r <= 0xD7AF
}

func countHangul(s string) int {
	n := 0
	for _, r := range s {
		if isHangul(r) {
			n++
		}
	}
	return n
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// collapseSpaces removes whitespace and stray quotes the recognizer inserts
// between Hangul syllables, so "합 계" compares equal to "합계".
func collapseSpaces(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if isGap(r) && i > 0 && isHangul(runes[i-1]) {
			j := i
			for j < len(runes) && isGap(runes[j]) {
				j++
			}
			if j < len(runes) && isHangul(runes[j]) {
				i = j - 1
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isGap(r rune) bool {
	return unicode.IsSpace(r) || r == '\'' || r == '"'
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
