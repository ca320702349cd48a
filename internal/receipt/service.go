package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/zombor/receipt-audit/internal/audit"
	"github.com/zombor/receipt-audit/internal/ocr"
	"github.com/zombor/receipt-audit/internal/parsing"
)

// ErrUnsupportedType is returned for uploads the recognizer cannot read
var ErrUnsupportedType = errors.New("unsupported file type")

// supportedTypes lists the accepted upload MIME types
var supportedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/bmp":       true,
	"image/webp":      true,
	"image/heic":      true,
	"image/heif":      true,
	"application/pdf": true,
}

var (
	filenameNoise  = regexp.MustCompile(`[^\p{L}\p{N}\s\-_]`)
	filenameSpaces = regexp.MustCompile(`\s+`)
)

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles receipt operations
type Service struct {
	db         DB
	recognizer ocr.Recognizer
	storage    Storage
	parser     *parsing.Parser
	auditor    *audit.Auditor
	timeSource TimeSource
}

// NewService creates a new Service with the default parser and time source
func NewService(db DB, recognizer ocr.Recognizer, storage Storage, auditor *audit.Auditor) *Service {
	return NewServiceWithDeps(db, recognizer, storage, auditor, parsing.NewParser(), &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, recognizer ocr.Recognizer, storage Storage, auditor *audit.Auditor, parser *parsing.Parser, timeSrc TimeSource) *Service {
	return &Service{
		db:         db,
		recognizer: recognizer,
		storage:    storage,
		parser:     parser,
		auditor:    auditor,
		timeSource: timeSrc,
	}
}

// IsSupportedType reports whether an upload of this MIME type can be processed
func IsSupportedType(contentType string) bool {
	return supportedTypes[strings.ToLower(strings.TrimSpace(contentType))]
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = filenameNoise.ReplaceAllString(base, "")
	base = filenameSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	// Phone cameras produce very long names
	const maxLen = 50
	if runes := []rune(base); len(runes) > maxLen {
		base = string(runes[:maxLen])
	}

	if base == "" {
		base = "receipt"
	}
	if ext = filenameNoise.ReplaceAllString(strings.TrimPrefix(ext, "."), ""); ext != "" {
		return base + "." + ext
	}
	return base
}

// ProcessReceipt recognizes an uploaded receipt, parses it and stores the
// record together with the original file
func (s *Service) ProcessReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Record, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !IsSupportedType(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	lines, err := ocr.Extract(ctx, s.recognizer, data, contentType)
	if err != nil {
		slog.Error("Failed to recognize receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, err
	}

	receipt := s.parser.Parse(ocr.Texts(lines))
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", receipt.ReceiptID, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	record := &Record{
		ID:          receipt.ReceiptID,
		Receipt:     receipt,
		Filename:    savedPath,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.SaveRecord(record); err != nil {
		// Clean up file if database save fails
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	slog.Info("Receipt processed",
		"id", record.ID,
		"lines", len(lines),
		"items", len(receipt.Items),
		"total_price", receipt.TotalPrice,
	)
	return record, nil
}

// ParseDetections parses recognizer output supplied by the caller. Nothing is stored.
func (s *Service) ParseDetections(detections []ocr.Detection) *parsing.Receipt {
	return s.parser.ParseDetections(detections)
}

// CheckAudit audits a receipt and, when a record exists for it, stores the
// result on the record
func (s *Service) CheckAudit(ctx context.Context, receipt *parsing.Receipt) (*audit.Result, error) {
	result := s.auditor.Check(ctx, receipt)

	record, err := s.db.GetRecord(receipt.ReceiptID)
	switch {
	case errors.Is(err, ErrNotFound):
		return result, nil
	case err != nil:
		return nil, fmt.Errorf("getting receipt: %w", err)
	}

	record.Audit = result
	record.UpdatedAt = s.timeSource.Now()
	if err := s.db.SaveRecord(record); err != nil {
		return nil, fmt.Errorf("saving audit result: %w", err)
	}
	return result, nil
}

// GetReceipt retrieves a record by ID
func (s *Service) GetReceipt(id string) (*Record, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return record, nil
}

// ListReceipts returns all records, newest first
func (s *Service) ListReceipts() ([]*Record, error) {
	records, err := s.db.ListRecords()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// DeleteReceipt removes a record and its file
func (s *Service) DeleteReceipt(id string) error {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if err := s.storage.Delete(record.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", record.Filename, "error", err)
	}

	if err := s.db.DeleteRecord(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptFile retrieves the uploaded file for a record
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(record.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, record.ContentType, nil
}
