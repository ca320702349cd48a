package parsing

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	taxMarkerSuffix = regexp.MustCompile(`[TtAa]$`)
	// A minus directly after another digit belongs to a phone number such as 02-201-0700
	negativeAmount = regexp.MustCompile(`(?:^|\D)-(\d+)$`)
	digitRun       = regexp.MustCompile(`\d+`)
	currencyMarks  = strings.NewReplacer("#", "", "W", "", `\`, "", "₩", "")
	groupMarks     = strings.NewReplacer(",", "", "원", "")
)

// ParsePrice converts a price fragment such as "#1,200원" or "-3,100" into an
// integer amount. ok is false when the fragment carries no digits.
func ParsePrice(text string) (amount int, ok bool) {
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	text = taxMarkerSuffix.ReplaceAllString(text, "")
	text = currencyMarks.Replace(text)
	text = collapseDotThousands(text)
	text = groupMarks.Replace(text)

	if m := negativeAmount.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return -n, true
		}
		return 0, false
	}

	if m := digitRun.FindString(text); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n, true
		}
	}
	return 0, false
}

// collapseDotThousands drops a '.' followed by exactly three digits and no
// fourth, so "15.800" reads as 15800 while "3.5" is left alone.
func collapseDotThousands(text string) string {
	if !strings.Contains(text, ".") {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		if text[i] == '.' && i+3 < len(text) && isDigits(text[i+1:i+4]) &&
			(i+4 == len(text) || !isDigit(text[i+4])) {
			continue
		}
		b.WriteByte(text[i])
	}
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}
