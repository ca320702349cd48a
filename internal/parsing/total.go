package parsing

const (
	minTotal = 100
	maxTotal = 10_000_000
)

// ExtractTotal finds the amount paid. Final payment lines win over general
// sum lines, and tax subtotals are never taken as the total.
func ExtractTotal(texts []string, tables Tables) (int, bool) {
	for i, text := range texts {
		if !containsAny(collapseSpaces(text), tables.PriorityTotal) {
			continue
		}
		if price, ok := priceNear(texts, i); ok && inTotalRange(price) {
			return price, true
		}
	}

	for i, text := range texts {
		collapsed := collapseSpaces(text)
		if !containsAny(collapsed, tables.Total) || containsAny(collapsed, tables.TaxQualifiers) {
			continue
		}
		if price, ok := priceNear(texts, i); ok && inTotalRange(price) {
			return price, true
		}
	}
	return 0, false
}

// priceNear reads the amount from the keyword line, or from the line below
// when the amount was printed on its own row.
func priceNear(texts []string, idx int) (int, bool) {
	if price, ok := ParsePrice(texts[idx]); ok && abs(price) >= minTotal {
		return price, true
	}
	if idx+1 < len(texts) {
		if price, ok := ParsePrice(texts[idx+1]); ok && abs(price) >= minTotal {
			return price, true
		}
	}
	return 0, false
}

func inTotalRange(price int) bool {
	a := abs(price)
	return a >= minTotal && a <= maxTotal
}
