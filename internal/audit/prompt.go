package audit

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zombor/receipt-audit/internal/parsing"
)

const systemPrompt = `당신은 영수증 감사 시스템의 수석 감사관입니다.
제공된 [조직 규정]을 바탕으로 [영수증 데이터]의 적절성을 판단하세요.

반드시 다음 JSON 형식을 엄격히 준수하여 답변하세요:
{
    "audit_decision": "Pass" 또는 "Anomaly Detected",
    "violation_score": 0.0 ~ 1.0 (위험도),
    "violations": [
        {
            "item_id": 해당 품목의 ID (영수증 전체에 해당하면 0),
            "reason": "위반 사유",
            "policy_reference": "관련 규정 조항 문구"
        }
    ],
    "reasoning": "종합적인 감사 의견"
}

주의: 주류, 담배 품목이나 심야 결제 등 사적 이용 의심 사례를 집중 감시하세요.`

// buildPrompt renders the retrieved clauses and the receipt for the model
func buildPrompt(receipt *parsing.Receipt, clauses []string) (string, error) {
	receiptJSON, err := json.Marshal(receipt)
	if err != nil {
		return "", fmt.Errorf("marshaling receipt: %w", err)
	}
	return fmt.Sprintf("[조직 규정]\n%s\n\n[영수증 데이터]\n%s", strings.Join(clauses, "\n\n"), receiptJSON), nil
}

// retrievalQuery is the text matched against the policy clauses
func retrievalQuery(receipt *parsing.Receipt) string {
	parts := []string{receipt.StoreName, receipt.Date}
	for _, item := range receipt.Items {
		parts = append(parts, item.Name)
	}
	return strings.Join(parts, " ")
}
