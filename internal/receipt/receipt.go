package receipt

import (
	"errors"
	"time"

	"github.com/zombor/receipt-audit/internal/audit"
	"github.com/zombor/receipt-audit/internal/parsing"
)

// ErrNotFound is returned when no record exists for an id
var ErrNotFound = errors.New("receipt not found")

// Record is a parsed receipt together with its uploaded file and latest audit
type Record struct {
	ID          string           `json:"id"`
	Receipt     *parsing.Receipt `json:"receipt"`
	Audit       *audit.Result    `json:"audit,omitempty"`
	Filename    string           `json:"filename"`
	ContentType string           `json:"content_type"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
