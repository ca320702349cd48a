// Package parsing turns recognized receipt lines into a structured receipt.
//
// Every extractor is a pure function of the line texts and the keyword
// tables, so a Parser may be shared between goroutines.
package parsing

import (
	"github.com/google/uuid"

	"github.com/zombor/receipt-audit/internal/ocr"
)

// Receipt is the structured result of parsing one receipt
type Receipt struct {
	ReceiptID  string     `json:"receipt_id"`
	StoreName  string     `json:"store_name"`
	Date       string     `json:"date"`
	Items      []LineItem `json:"items"`
	TotalPrice int        `json:"total_price"`
}

// ItemsTotal sums the item prices, discounts included
func (r *Receipt) ItemsTotal() int {
	var sum int
	for _, item := range r.Items {
		sum += item.Price
	}
	return sum
}

// IDGenerator generates unique receipt identifiers
type IDGenerator interface {
	Generate() string
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

// Parser assembles receipts from line texts
type Parser struct {
	tables      Tables
	idGenerator IDGenerator
}

// NewParser creates a Parser with the default Korean tables and random UUIDs
func NewParser() *Parser {
	return NewParserWithDeps(DefaultTables(), uuidGenerator{})
}

// NewParserWithDeps creates a Parser with custom tables and id generator
func NewParserWithDeps(tables Tables, idGen IDGenerator) *Parser {
	return &Parser{
		tables:      tables,
		idGenerator: idGen,
	}
}

// Parse builds a receipt from ordered line texts. It never fails: fields that
// cannot be found are left empty, and the total falls back to the absolute
// item sum.
func (p *Parser) Parse(texts []string) *Receipt {
	storeName, _ := ExtractStoreName(texts, p.tables)
	date, _ := ExtractDate(texts, p.tables)

	receipt := &Receipt{
		ReceiptID: p.idGenerator.Generate(),
		StoreName: storeName,
		Date:      date,
		Items:     ExtractItems(texts, p.tables),
	}

	// Cancellation slips and refund-only receipts come out negative; the total
	// is reported as the amount that changed hands
	if total, ok := ExtractTotal(texts, p.tables); ok {
		receipt.TotalPrice = abs(total)
	} else {
		receipt.TotalPrice = abs(receipt.ItemsTotal())
	}
	return receipt
}

// ParseDetections merges raw recognizer output into lines and parses them
func (p *Parser) ParseDetections(detections []ocr.Detection) *Receipt {
	return p.Parse(ocr.Texts(ocr.MergeLines(detections)))
}
