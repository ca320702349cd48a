package parsing

import (
	"regexp"
	"strings"
)

// storeHeadLines bounds the positional fallback to the receipt header
const storeHeadLines = 10

var (
	storeLabels = []*regexp.Regexp{
		regexp.MustCompile(`매장\s*명?\s*[:：\[\]]\s*(.+)`),
		regexp.MustCompile(`상\s*호\s*명?\s*[:：]\s*(.+)`),
		regexp.MustCompile(`주문\s*매장\s*[:：]\s*(.+)`),
	}
	labelMetaSuffix = regexp.MustCompile(`\s+TEL|전화|T\.|TID`)
	headMetaSuffix  = regexp.MustCompile(`\s+TID|TID:|전화|TEL|T\.`)

	storeNumberPrefix = regexp.MustCompile(`^#\d+\s*`)
	directStorePrefix = regexp.MustCompile(`^직영\s*`)
	// business registration number such as 238-85-00709
	registrationSuffix = regexp.MustCompile(`\s*/?\d{3}-\d{2}-\d{5}$`)

	headerNoise = regexp.MustCompile(`^[\d\s:/.,()\-]+$`)
	phoneShape  = regexp.MustCompile(`^[\d\-()]{7,}$`)
)

// ExtractStoreName finds the merchant name, preferring an explicit label
// anywhere on the receipt over the first plausible header line.
func ExtractStoreName(texts []string, tables Tables) (string, bool) {
	for _, text := range texts {
		for _, label := range storeLabels {
			m := label.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			name := strings.TrimSpace(m[1])
			name = strings.TrimSpace(cutAt(labelMetaSuffix, name))
			name = cleanStoreName(name)
			if runeLen(name) >= 2 {
				return name, true
			}
		}
	}

	for _, text := range texts[:min(len(texts), storeHeadLines)] {
		text = strings.TrimSpace(text)
		if headerNoise.MatchString(text) || runeLen(text) < 2 {
			continue
		}
		if containsAny(text, tables.StoreSkip) {
			continue
		}
		if phoneShape.MatchString(strings.ReplaceAll(text, " ", "")) {
			continue
		}
		if containsAny(text, tables.StoreMeta) {
			continue
		}
		name := cleanStoreName(strings.TrimSpace(cutAt(headMetaSuffix, text)))
		if runeLen(name) >= 2 {
			return name, true
		}
	}
	return "", false
}

// cutAt returns text up to the first match of sep
func cutAt(sep *regexp.Regexp, text string) string {
	if loc := sep.FindStringIndex(text); loc != nil {
		return text[:loc[0]]
	}
	return text
}

func cleanStoreName(name string) string {
	name = strings.Trim(name, "[]")
	name = storeNumberPrefix.ReplaceAllString(name, "")
	name = directStorePrefix.ReplaceAllString(name, "")
	name = strings.Trim(name, `"'\`)
	name = registrationSuffix.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}
