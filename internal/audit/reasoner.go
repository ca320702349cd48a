package audit

import (
	"context"

	"github.com/zombor/receipt-audit/internal/parsing"
)

// Reasoner defines the interface for language-model policy checks
type Reasoner interface {
	// Reason judges a receipt against the given policy clauses
	Reason(ctx context.Context, receipt *parsing.Receipt, clauses []string) (*Result, error)
	// Close closes the reasoner and releases resources
	Close() error
}

// Embedder turns texts into vectors for policy clause retrieval
type Embedder interface {
	// Embed returns one vector per text, in order
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
