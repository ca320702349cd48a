// Package audit checks parsed receipts against an organization expense policy.
package audit

import (
	"context"
	"log/slog"

	"github.com/zombor/receipt-audit/internal/parsing"
)

// Auditor retrieves the relevant policy clauses for a receipt and asks the
// reasoner for a verdict, falling back to the keyword rules whenever the
// reasoner cannot be used.
type Auditor struct {
	policy   *Policy
	reasoner Reasoner
	rules    Rules
	k        int
}

// NewAuditor creates an Auditor. Either argument may be nil, in which case
// every check uses the default rules.
func NewAuditor(policy *Policy, reasoner Reasoner) *Auditor {
	return NewAuditorWithRules(policy, reasoner, DefaultRules())
}

// NewAuditorWithRules creates an Auditor with custom fallback rules
func NewAuditorWithRules(policy *Policy, reasoner Reasoner, rules Rules) *Auditor {
	return &Auditor{
		policy:   policy,
		reasoner: reasoner,
		rules:    rules,
		k:        DefaultRetrieveCount,
	}
}

// Check audits a receipt. It always produces a result.
func (a *Auditor) Check(ctx context.Context, receipt *parsing.Receipt) *Result {
	if a.reasoner == nil {
		return a.rules.Check(receipt)
	}

	clauses := a.policy.Retrieve(ctx, retrievalQuery(receipt), a.k)
	if len(clauses) == 0 {
		slog.Debug("No policy clauses available, using rules", "receipt_id", receipt.ReceiptID)
		return a.rules.Check(receipt)
	}

	result, err := a.reasoner.Reason(ctx, receipt, clauses)
	if err != nil {
		slog.Warn("Reasoner failed, using rules", "receipt_id", receipt.ReceiptID, "error", err)
		return a.rules.Check(receipt)
	}

	slog.Debug("Receipt audited", "receipt_id", receipt.ReceiptID, "decision", result.Decision, "score", result.Score)
	return result
}

// Close releases the reasoner
func (a *Auditor) Close() error {
	if a.reasoner == nil {
		return nil
	}
	return a.reasoner.Close()
}
