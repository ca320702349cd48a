package audit

import (
	"strings"
	"time"

	"github.com/zombor/receipt-audit/internal/parsing"
)

// Rules is the keyword and business-hours check used when no language model
// can be consulted.
type Rules struct {
	// Banned item keywords, such as alcohol and tobacco
	Banned []string
	// Payments are allowed from OpenHour (inclusive) to CloseHour (exclusive)
	OpenHour  int
	CloseHour int
}

// DefaultRules bans alcohol and tobacco and allows payments from 08:00 to 22:00
func DefaultRules() Rules {
	return Rules{
		Banned:    []string{"참이슬", "소주", "맥주", "와인", "카스", "담배"},
		OpenHour:  8,
		CloseHour: 22,
	}
}

// Check audits a receipt against the rules
func (r Rules) Check(receipt *parsing.Receipt) *Result {
	violations := []Violation{}
	for _, item := range receipt.Items {
		for _, keyword := range r.Banned {
			if strings.Contains(item.Name, keyword) {
				violations = append(violations, Violation{
					ItemID:          item.ID,
					Reason:          "금지 품목 구매 의심",
					PolicyReference: "제3조 금지 품목",
				})
				break
			}
		}
	}

	if hour, ok := paymentHour(receipt.Date); ok && (hour < r.OpenHour || hour >= r.CloseHour) {
		violations = append(violations, Violation{
			ItemID:          0,
			Reason:          "허용 시간 외 결제 의심",
			PolicyReference: "제4조 허용 시간",
		})
	}

	if len(violations) > 0 {
		return &Result{
			Decision:   DecisionAnomaly,
			Score:      min(1.0, 0.75+0.05*float64(len(violations))),
			Violations: violations,
			Reasoning:  "규칙 기반 점검에서 위반 가능성이 확인되었습니다.",
		}
	}
	return &Result{
		Decision:   DecisionPass,
		Score:      0.08,
		Violations: violations,
		Reasoning:  "규칙 기반 점검에서 명확한 위반 항목이 확인되지 않았습니다.",
	}
}

// paymentHour reads the hour from a canonical "YYYY-MM-DD HH:MM" date.
// Dates without a time carry no hour.
func paymentHour(date string) (int, bool) {
	t, err := time.Parse("2006-01-02 15:04", strings.TrimSpace(date))
	if err != nil {
		return 0, false
	}
	return t.Hour(), true
}
