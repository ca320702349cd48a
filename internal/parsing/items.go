package parsing

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// maxItemPrice rejects card and account numbers read as prices
	maxItemPrice       = 10_000_000
	// minStandalonePrice is the smallest amount accepted on a "name amount" line
	minStandalonePrice = 100
	maxUnitPriceCount  = 100
	maxImplicitCount   = 50
)

var (
	subtotalLine = regexp.MustCompile(`^\s*계\s+[\d,]+`)

	barcodeLine   = regexp.MustCompile(`^\*?\d{8,}\s+[\d,]+`)
	barcodePrefix = regexp.MustCompile(`^\*?\d{8,}\s+`)

	unitsOnly          = regexp.MustCompile(`^[\d,.\s]+\d+개`)
	trailingColon      = regexp.MustCompile(`:+\s*$`)
	approvalNumber     = regexp.MustCompile(`번호\d`)
	paymentCardSuffix  = regexp.MustCompile(`카드$`)
	quantityLineStart  = regexp.MustCompile(`^[\d,.]+\s+\d+개\s`)
	numbersOnly        = regexp.MustCompile(`^[\d,.\s]+$`)
	trailingPrice      = regexp.MustCompile(`\s*-?[\d,.]+\s*$`)
	taxSummaryStart    = regexp.MustCompile(`^\d+%\s`)
	specialSymbols     = regexp.MustCompile(`[*&°@#$%^{}|<>~\x{2160}-\x{216F}]`)
	streetAddress      = regexp.MustCompile(`[구군]\s+\S+[로길동]\s+\d`)
	trailingTaxMark    = regexp.MustCompile(`(\d)[Tt]\s*$`)
	splitThousands     = regexp.MustCompile(`(\d),\s+(\d)`)
	trailingLetters    = regexp.MustCompile(`[TtA-Za-z]+\s*$`)
	ordinalParenPrefix = regexp.MustCompile(`^\d{1,3}[)]\s*`)
	ordinalPrefix      = regexp.MustCompile(`^\d{1,3}\s+`)
	starPrefix         = regexp.MustCompile(`^\*\s*`)

	qtyUnitDiscountTotal = regexp.MustCompile(`^([\d,.]+)\s+(\d+)개\s+([\d,.]+)\s+([\d,.]+)`)
	qtyUnitTotal         = regexp.MustCompile(`^([\d,.]+)\s+(\d+)개\s+([\d,.]+)\s*$`)
	unitCountTotal       = regexp.MustCompile(`^([\d,.]+)\s+(\d+)\s+([\d,.]+)\s*$`)
	unitCount            = regexp.MustCompile(`^([\d,.]+)\s+(\d+)\s*$`)
	countTotal           = regexp.MustCompile(`^(\d+)\s+([\d,.]+)\s*$`)
	totalOnly            = regexp.MustCompile(`^([\d,.]+)\s*$`)

	discountRow     = regexp.MustCompile(`^(.+?)\s+(-[\d,.]+)\s+([\d,.]+)\s*$`)
	countUnitAmount = regexp.MustCompile(`^(.+?)\s+(\d+)\s+([\d,.]+)\s+([\d,.]+)\s*$`)
	unitTimesCount  = regexp.MustCompile(`^(.+?)\s+([\d,.]+)\s*[xX×]\s*(\d+)\s*([\d,.]*)\s*$`)
	countAmount     = regexp.MustCompile(`^(.+?)\s+(\d+)\s+([\d,.]+)\s*$`)
	nameAmount      = regexp.MustCompile(`^(.+?)\s+(-?[\d,.]+)\s*$`)
	leadingStars    = regexp.MustCompile(`^[*\s]+`)
	leadingChevrons = regexp.MustCompile(`^>{1,2}\s*`)
	leadingDash     = regexp.MustCompile(`^-\s*`)
	leadingTaxTag   = regexp.MustCompile(`^\((면세|과세)\)\s*`)
	trailingTaxTag  = regexp.MustCompile(`\((과세|면세)\)\s*$`)
	gluedPrice      = regexp.MustCompile(`\s+\d{1,3}(,\d{3})+\s*-?\s*$`)
	trailingBracket = regexp.MustCompile(`[\[\]]$`)
)

// LineItem is one purchased article. Discounts are items with negative prices.
type LineItem struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	UnitPrice int    `json:"unit_price"`
	Count     int    `json:"count"`
	Price     int    `json:"price"`
}

// itemState is the accumulator folded over the receipt lines
type itemState struct {
	pendingName string
	hasPending  bool
	pastTotal   bool
	items       []LineItem
}

func (s itemState) withPending(name string) itemState {
	s.pendingName, s.hasPending = name, true
	return s
}

func (s itemState) clearPending() itemState {
	s.pendingName, s.hasPending = "", false
	return s
}

func (s itemState) emit(item LineItem) itemState {
	item.ID = len(s.items) + 1
	s.items = append(s.items, item)
	return s.clearPending()
}

// rowMatcher interprets a single line as an item, or reports no match
type rowMatcher func(text string) (LineItem, bool)

// rowMatchers are tried in order; the first match wins
var rowMatchers = []rowMatcher{
	matchDiscount,
	matchCountUnitAmount,
	matchUnitTimesCount,
	matchCountAmount,
}

// ExtractItems walks the lines once and returns the purchased items in
// receipt order. Lines after the payment total are ignored.
func ExtractItems(texts []string, tables Tables) []LineItem {
	state := itemState{items: []LineItem{}}
	for idx := range texts {
		state = stepItems(state, texts, idx, tables)
	}
	return finalizeItems(state.items)
}

// stepItems classifies one line and returns the next accumulator
func stepItems(state itemState, texts []string, idx int, tables Tables) itemState {
	text := strings.TrimSpace(texts[idx])
	if text == "" {
		return state
	}

	if !state.pastTotal && len(state.items) > 0 && isTotalLine(text, tables) {
		state.pastTotal = true
	}
	if state.pastTotal {
		return state.clearPending()
	}

	if barcodeLine.MatchString(text) {
		if state.hasPending {
			rest := strings.TrimSpace(barcodePrefix.ReplaceAllString(text, ""))
			if unit, count, price, ok := parsePriceLine(rest); ok {
				return state.emit(LineItem{
					Name:      cleanItemName(state.pendingName),
					UnitPrice: unit,
					Count:     count,
					Price:     price,
				})
			}
		}
		return state.clearPending()
	}

	if state.hasPending && isQuantityPriceLine(text) {
		if unit, count, price, ok := parseQuantityPriceLine(text); ok {
			return state.emit(LineItem{
				Name:      cleanItemName(state.pendingName),
				UnitPrice: unit,
				Count:     count,
				Price:     price,
			})
		}
	}

	if !isItemLine(text, tables) || isGarbled(text) {
		return state.clearPending()
	}

	// zero-cost options such as "+ 샷추가"
	if strings.HasPrefix(text, "+") {
		return state
	}

	row := trailingTaxMark.ReplaceAllString(text, "$1")
	row = splitThousands.ReplaceAllString(row, "$1,$2")

	for _, match := range rowMatchers {
		if item, ok := match(row); ok {
			return state.emit(item)
		}
	}

	if name, price, ok := matchNameAmount(row); ok {
		// The barcode row below carries the authoritative count and price
		if idx+1 < len(texts) && barcodeLine.MatchString(strings.TrimSpace(texts[idx+1])) {
			return state.withPending(name)
		}
		return state.emit(LineItem{
			Name:      cleanItemName(name),
			UnitPrice: price,
			Count:     1,
			Price:     price,
		})
	}

	if runeLen(text) >= 2 && !numericOnly.MatchString(text) {
		name := strings.TrimSpace(ordinalParenPrefix.ReplaceAllString(text, ""))
		name = strings.TrimSpace(ordinalPrefix.ReplaceAllString(name, ""))
		name = strings.TrimSpace(starPrefix.ReplaceAllString(name, ""))
		if runeLen(name) >= 2 {
			return state.withPending(name)
		}
	}
	return state.clearPending()
}

// isTotalLine reports whether the line opens the payment summary
func isTotalLine(text string, tables Tables) bool {
	collapsed := collapseSpaces(text)
	switch {
	case containsAny(collapsed, tables.PriorityTotal):
		return true
	case containsAny(collapsed, tables.Total):
		return !containsAny(collapsed, tables.TaxQualifiers)
	default:
		return subtotalLine.MatchString(collapsed)
	}
}

// isItemLine filters out metadata, labels and payment rows
func isItemLine(text string, tables Tables) bool {
	collapsed := collapseSpaces(text)
	switch {
	case containsAny(collapsed, tables.Total), containsAny(collapsed, tables.Skip):
		return false
	case unitsOnly.MatchString(text), trailingColon.MatchString(text):
		return false
	case approvalNumber.MatchString(collapsed), paymentCardSuffix.MatchString(collapsed):
		return false
	}
	return true
}

// isGarbled detects recognizer noise that would otherwise become a bogus item
func isGarbled(text string) bool {
	if runeLen(text) < 2 {
		return true
	}
	if countHangul(text) == 0 && runeLen(text) <= 3 {
		return true
	}

	name := trailingPrice.ReplaceAllString(text, "")
	if name == "" {
		return false
	}
	compact := strings.ReplaceAll(name, " ", "")
	if runeLen(compact) <= 3 && countHangul(name) <= 1 {
		return true
	}
	if taxSummaryStart.MatchString(text) {
		return true
	}
	if len(specialSymbols.FindAllString(text, -1)) >= 2 {
		return true
	}
	if streetAddress.MatchString(text) {
		return true
	}
	return !hangulRun.MatchString(compact) && !latinRun.MatchString(compact)
}

func isQuantityPriceLine(text string) bool {
	return quantityLineStart.MatchString(text) || numbersOnly.MatchString(text)
}

// parseQuantityPriceLine reads continuation rows such as "6,000 1개 0 6,000"
func parseQuantityPriceLine(text string) (unit, count, price int, ok bool) {
	if m := qtyUnitDiscountTotal.FindStringSubmatch(text); m != nil {
		if unit, count, price, ok = unitCountPrice(m[1], m[2], m[4], 0); ok {
			return
		}
	}
	if m := qtyUnitTotal.FindStringSubmatch(text); m != nil {
		if unit, count, price, ok = unitCountPrice(m[1], m[2], m[3], 0); ok {
			return
		}
	}
	if m := unitCountTotal.FindStringSubmatch(text); m != nil {
		if unit, count, price, ok = unitCountPrice(m[1], m[2], m[3], maxImplicitCount); ok {
			return
		}
	}
	if m := unitCount.FindStringSubmatch(text); m != nil {
		u, uok := ParsePrice(m[1])
		c, err := strconv.Atoi(m[2])
		if uok && err == nil && c <= maxImplicitCount {
			return u, c, u * c, true
		}
	}
	return 0, 0, 0, false
}

// parsePriceLine reads the numbers after a barcode: unit count total, count total, or total
func parsePriceLine(text string) (unit, count, price int, ok bool) {
	text = strings.TrimSpace(trailingLetters.ReplaceAllString(strings.TrimSpace(text), ""))

	if m := unitCountTotal.FindStringSubmatch(text); m != nil {
		if unit, count, price, ok = unitCountPrice(m[1], m[2], m[3], 0); ok {
			return
		}
	}
	if m := countTotal.FindStringSubmatch(text); m != nil {
		c, err := strconv.Atoi(m[1])
		p, pok := ParsePrice(m[2])
		if err == nil && pok && c <= maxImplicitCount {
			return perUnit(p, c), c, p, true
		}
	}
	if m := totalOnly.FindStringSubmatch(text); m != nil {
		if p, pok := ParsePrice(m[1]); pok {
			return p, 1, p, true
		}
	}
	return 0, 0, 0, false
}

// unitCountPrice parses a unit/count/total triple; maxCount 0 means unbounded
func unitCountPrice(unitText, countText, priceText string, maxCount int) (int, int, int, bool) {
	unit, uok := ParsePrice(unitText)
	price, pok := ParsePrice(priceText)
	count, err := strconv.Atoi(countText)
	if !uok || !pok || err != nil {
		return 0, 0, 0, false
	}
	if maxCount > 0 && count > maxCount {
		return 0, 0, 0, false
	}
	return unit, count, price, true
}

func perUnit(price, count int) int {
	if count > 0 && price != 0 {
		return price / count
	}
	return price
}

// matchDiscount reads "할인 30% -40,500 94,500"; the trailing subtotal is discarded
func matchDiscount(row string) (LineItem, bool) {
	m := discountRow.FindStringSubmatch(row)
	if m == nil {
		return LineItem{}, false
	}
	amount, ok := ParsePrice(m[2])
	if !ok || amount >= 0 {
		return LineItem{}, false
	}
	return LineItem{
		Name:      cleanItemName(strings.TrimSpace(m[1])),
		UnitPrice: amount,
		Count:     1,
		Price:     amount,
	}, true
}

// matchCountUnitAmount reads "참이슬 2 1,800 3,600"
func matchCountUnitAmount(row string) (LineItem, bool) {
	m := countUnitAmount.FindStringSubmatch(row)
	if m == nil {
		return LineItem{}, false
	}
	name := strings.TrimSpace(m[1])
	count, err := strconv.Atoi(m[2])
	unit, uok := ParsePrice(m[3])
	price, pok := ParsePrice(m[4])
	if err != nil || !uok || !pok || unit == 0 || price == 0 || name == "" || count > maxUnitPriceCount {
		return LineItem{}, false
	}
	return LineItem{Name: cleanItemName(name), UnitPrice: unit, Count: count, Price: price}, true
}

// matchUnitTimesCount reads "참이슬 1,800 X 2" with an optional amount
func matchUnitTimesCount(row string) (LineItem, bool) {
	m := unitTimesCount.FindStringSubmatch(row)
	if m == nil {
		return LineItem{}, false
	}
	unit, uok := ParsePrice(m[2])
	count, err := strconv.Atoi(m[3])
	if !uok || unit == 0 || err != nil || count == 0 {
		return LineItem{}, false
	}
	price := unit * count
	if amountText := strings.TrimSpace(m[4]); amountText != "" {
		if p, ok := ParsePrice(amountText); ok {
			price = p
		}
	}
	return LineItem{
		Name:      cleanItemName(strings.TrimSpace(m[1])),
		UnitPrice: unit,
		Count:     count,
		Price:     price,
	}, true
}

// matchCountAmount reads "버터 1 3,120" where the unit price is implied
func matchCountAmount(row string) (LineItem, bool) {
	m := countAmount.FindStringSubmatch(row)
	if m == nil {
		return LineItem{}, false
	}
	name := strings.TrimSpace(m[1])
	count, err := strconv.Atoi(m[2])
	price, ok := ParsePrice(m[3])
	if err != nil || !ok || count > maxImplicitCount || name == "" || numericOnly.MatchString(name) {
		return LineItem{}, false
	}
	return LineItem{
		Name:      cleanItemName(name),
		UnitPrice: perUnit(price, count),
		Count:     count,
		Price:     price,
	}, true
}

// matchNameAmount reads "삼각김밥 1,200" and returns the raw name for deferral
func matchNameAmount(row string) (string, int, bool) {
	m := nameAmount.FindStringSubmatch(row)
	if m == nil {
		return "", 0, false
	}
	name := strings.TrimSpace(m[1])
	price, ok := ParsePrice(m[2])
	if !ok || runeLen(name) < 2 || numericOnly.MatchString(name) {
		return "", 0, false
	}
	if abs(price) < minStandalonePrice {
		return "", 0, false
	}
	return name, price, true
}

// cleanItemName strips markers, tax tags, ordinals and glued prices from a name
func cleanItemName(name string) string {
	name = leadingStars.ReplaceAllString(name, "")
	name = leadingChevrons.ReplaceAllString(name, "")
	name = leadingDash.ReplaceAllString(name, "")
	name = leadingTaxTag.ReplaceAllString(name, "")
	name = trailingTaxTag.ReplaceAllString(name, "")
	name = ordinalPrefix.ReplaceAllString(name, "")
	name = gluedPrice.ReplaceAllString(name, "")
	name = trailingBracket.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// finalizeItems drops stray labels and misread numbers, then renumbers
func finalizeItems(items []LineItem) []LineItem {
	kept := make([]LineItem, 0, len(items))
	for _, item := range items {
		if trailingColon.MatchString(item.Name) {
			continue
		}
		if item.Price == 0 && strings.Contains(item.Name, ":") {
			continue
		}
		if abs(item.Price) > maxItemPrice {
			continue
		}
		item.ID = len(kept) + 1
		if item.Count < 1 {
			item.Count = 1
		}
		kept = append(kept, item)
	}
	return kept
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
