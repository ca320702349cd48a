package parsing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// datePatterns capture a date and an optional time, most specific first
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4}[-/.]\d{1,2}[-/.]\d{1,2})\s+(\d{1,2}:\d{2})`),
	regexp.MustCompile(`(\d{4}[-/.]\d{1,2}[-/.]\d{1,2})(\d{2}:\d{2})`),
	regexp.MustCompile(`(\d{2}[-/.]\d{1,2}[-/.]\d{1,2})\s+(\d{1,2}:\d{2})`),
	regexp.MustCompile(`(\d{2}[-/.]\d{1,2}[-/.]\d{1,2})(\d{2}:\d{2})`),
	regexp.MustCompile(`(\d{4}[-/.]\d{1,2}[-/.]\d{1,2})()`),
	regexp.MustCompile(`(\d{2}[-/.]\d{1,2}[-/.]\d{1,2})()`),
}

var (
	dateSeparators = regexp.MustCompile(`[-/.]`)
	meridiemTime   = regexp.MustCompile(`(오전|오후)\s*(\d{1,2}):(\d{2})`)

	labeledTime         = regexp.MustCompile(`시간\s*[:：]\s*(\d{1,2}):(\d{2})`)
	labeledMeridiemTime = regexp.MustCompile(`시간\s*[:：]\s*(오전|오후)\s*(\d{1,2}):(\d{2})`)
	bracketedTime       = regexp.MustCompile(`[\[<]\s*(\d{1,2}):(\d{2})\s*[\]>]`)
	standaloneTime      = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})(?::\d{2})?\s*$`)
)

// canonicalLayouts are tried in order; 06 maps 00-68 into the 2000s
var canonicalLayouts = []struct {
	layout  string
	hasTime bool
}{
	{"2006-1-2 15:04", true},
	{"2006-1-2", false},
	{"06-1-2 15:04", true},
	{"06-1-2", false},
}

const (
	// time window searched around a date line that carries no time itself
	timeLinesBefore = 2
	timeLinesAfter  = 4
)

// ExtractDate finds the transaction timestamp and returns it as
// "YYYY-MM-DD HH:MM", or "YYYY-MM-DD" when no time could be found.
func ExtractDate(texts []string, tables Tables) (string, bool) {
	// Lines labelled as the transaction time win over any other date
	for i, text := range texts {
		if !containsAny(collapseSpaces(text), tables.DateContext) {
			continue
		}
		date, clock, ok := findDate(text)
		if !ok {
			continue
		}
		if clock != "" {
			return normalizeDate(date, clock), true
		}
		if m := meridiemTime.FindStringSubmatch(text); m != nil {
			if clock, ok := meridiemClock(m[1], m[2], m[3]); ok {
				return normalizeDate(date, clock), true
			}
		}
		clock, _ = searchTimeNearby(texts, i)
		return normalizeDate(date, clock), true
	}

	var (
		foundDate  string
		foundClock string
	)
	for i, text := range texts {
		if containsAny(text, tables.BusinessRegistration) {
			continue
		}
		if date, clock, ok := findDate(text); ok {
			if clock != "" {
				return normalizeDate(date, clock), true
			}
			if foundDate == "" {
				foundDate = date
				foundClock, _ = searchTimeNearby(texts, i)
			}
		}
		if foundDate != "" && foundClock == "" {
			if m := meridiemTime.FindStringSubmatch(text); m != nil {
				foundClock, _ = meridiemClock(m[1], m[2], m[3])
			}
		}
	}
	if foundDate != "" {
		return normalizeDate(foundDate, foundClock), true
	}
	return "", false
}

// findDate returns the first valid date on the line along with any time glued to it
func findDate(text string) (date, clock string, ok bool) {
	for _, p := range datePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil || !isValidDate(m[1]) {
			continue
		}
		return m[1], m[2], true
	}
	return "", "", false
}

// isValidDate rejects digit groups that only look like dates, such as
// business registration numbers or far-off years.
func isValidDate(date string) bool {
	parts := dateSeparators.Split(date, -1)
	if len(parts) != 3 {
		return false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return false
		}
		nums[i] = n
	}

	year, month, day := nums[0], nums[1], nums[2]
	switch {
	case year >= 1900:
	case year <= 99:
		year += 2000
	default:
		return false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	return year >= 2000 && year <= 2030
}

// searchTimeNearby looks for a time printed on a separate line near the date
func searchTimeNearby(texts []string, dateIdx int) (string, bool) {
	from := max(0, dateIdx-timeLinesBefore)
	to := min(len(texts), dateIdx+timeLinesAfter+1)
	for j := from; j < to; j++ {
		if j == dateIdx {
			continue
		}
		line := texts[j]
		if m := labeledTime.FindStringSubmatch(line); m != nil {
			if clock, ok := clockOf(m[1], m[2]); ok {
				return clock, true
			}
		}
		if m := labeledMeridiemTime.FindStringSubmatch(line); m != nil {
			if clock, ok := meridiemClock(m[1], m[2], m[3]); ok {
				return clock, true
			}
		}
		if m := bracketedTime.FindStringSubmatch(line); m != nil {
			if clock, ok := clockOf(m[1], m[2]); ok {
				return clock, true
			}
		}
		if m := standaloneTime.FindStringSubmatch(line); m != nil {
			if clock, ok := clockOf(m[1], m[2]); ok {
				return clock, true
			}
		}
	}
	return "", false
}

// clockOf validates an hour and minute pair and formats it as H:MM
func clockOf(hour, minute string) (string, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return "", false
	}
	m, err := strconv.Atoi(minute)
	if err != nil {
		return "", false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return "", false
	}
	return fmt.Sprintf("%d:%02d", h, m), true
}

// meridiemClock converts a Korean 오전/오후 time to 24-hour form
func meridiemClock(period, hour, minute string) (string, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return "", false
	}
	switch {
	case period == "오후" && h < 12:
		h += 12
	case period == "오전" && h == 12:
		h = 0
	}
	return clockOf(strconv.Itoa(h), minute)
}

// normalizeDate renders a date and optional time in canonical form. When no
// layout fits, the raw value is returned rather than dropped.
func normalizeDate(date, clock string) string {
	date = dateSeparators.ReplaceAllString(date, "-")
	clock = strings.TrimSpace(clock)
	if len(clock) > 5 {
		clock = clock[:5]
	}

	combined := date
	if clock != "" {
		combined = date + " " + clock
	}
	combined = strings.TrimSpace(combined)

	for _, l := range canonicalLayouts {
		t, err := time.Parse(l.layout, combined)
		if err != nil {
			continue
		}
		if l.hasTime {
			return t.Format("2006-01-02 15:04")
		}
		return t.Format("2006-01-02")
	}
	return combined
}
