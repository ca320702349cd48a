package audit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"
)

const (
	// maxClauseRunes bounds a clause so one retrieved clause stays a paragraph
	maxClauseRunes = 600
	// clauseOverlapRunes is the text repeated between neighbouring clauses of a long paragraph
	clauseOverlapRunes = 100
	// DefaultRetrieveCount is the number of clauses handed to the reasoner
	DefaultRetrieveCount = 3
)

// clauseSeparator is a split point inside a long paragraph. Leading separators
// open the next piece, such as the 제 of "제3조"; the others close the current one.
type clauseSeparator struct {
	text    string
	leading bool
}

var clauseSeparators = []clauseSeparator{
	{text: "\n"},
	{text: "제", leading: true},
	{text: "."},
}

// Policy is an organization expense policy split into clauses. An indexed
// policy ranks clauses by embedding similarity, otherwise by shared terms.
type Policy struct {
	clauses  []string
	vectors  [][]float32
	embedder Embedder
}

// LoadPolicy reads a policy document. PDF files are converted to text page by page,
// anything else is read as UTF-8 text. When embedder is not nil the clauses are
// embedded before the policy is returned.
func LoadPolicy(ctx context.Context, path string, embedder Embedder) (*Policy, error) {
	var text string
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		pdf, err := pdfText(path)
		if err != nil {
			return nil, err
		}
		text = pdf
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading policy: %w", err)
		}
		text = string(data)
	}

	policy := NewPolicy(text)
	if embedder != nil {
		if err := policy.Index(ctx, embedder); err != nil {
			return nil, err
		}
	}
	return policy, nil
}

func pdfText(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("opening policy PDF: %w", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("extracting text from page %d: %w", i+1, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n\n"), nil
}

// NewPolicy splits policy text into clauses on blank lines. Paragraphs longer
// than maxClauseRunes are split on lines, articles and sentences into several
// overlapping clauses.
func NewPolicy(text string) *Policy {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var clauses []string
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		clauses = append(clauses, splitClause(paragraph, clauseSeparators)...)
	}
	return &Policy{clauses: clauses}
}

// splitClause cuts text on the first separator it contains and recurses into
// pieces that are still too long
func splitClause(text string, separators []clauseSeparator) []string {
	if utf8.RuneCountInString(text) <= maxClauseRunes {
		return []string{text}
	}
	if len(separators) == 0 {
		return splitRunes(text)
	}
	sep, rest := separators[0], separators[1:]
	if !strings.Contains(text, sep.text) {
		return splitClause(text, rest)
	}

	var clauses, pending []string
	for _, piece := range splitKeep(text, sep) {
		if utf8.RuneCountInString(piece) <= maxClauseRunes {
			pending = append(pending, piece)
			continue
		}
		clauses = append(clauses, mergePieces(pending)...)
		pending = nil
		clauses = append(clauses, splitClause(piece, rest)...)
	}
	return append(clauses, mergePieces(pending)...)
}

// splitKeep splits text on sep, keeping the separator on the piece it belongs to
func splitKeep(text string, sep clauseSeparator) []string {
	if !sep.leading {
		return strings.SplitAfter(text, sep.text)
	}
	pieces := strings.Split(text, sep.text)
	for i := 1; i < len(pieces); i++ {
		pieces[i] = sep.text + pieces[i]
	}
	return pieces
}

// mergePieces packs consecutive pieces into clauses of at most maxClauseRunes,
// carrying up to clauseOverlapRunes of trailing pieces into the next clause
func mergePieces(pieces []string) []string {
	var (
		clauses []string
		window  []string
		size    int
	)
	flush := func() {
		if clause := strings.TrimSpace(strings.Join(window, "")); clause != "" {
			clauses = append(clauses, clause)
		}
	}
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if size+n > maxClauseRunes && len(window) > 0 {
			flush()
			for len(window) > 0 && (size > clauseOverlapRunes || size+n > maxClauseRunes) {
				size -= utf8.RuneCountInString(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		size += n
	}
	flush()
	return clauses
}

// splitRunes cuts text without separators into fixed windows that overlap
func splitRunes(text string) []string {
	runes := []rune(text)
	step := maxClauseRunes - clauseOverlapRunes
	var clauses []string
	for start := 0; start < len(runes); start += step {
		end := min(start+maxClauseRunes, len(runes))
		if clause := strings.TrimSpace(string(runes[start:end])); clause != "" {
			clauses = append(clauses, clause)
		}
		if end == len(runes) {
			break
		}
	}
	return clauses
}

// Clauses returns every clause in document order
func (p *Policy) Clauses() []string {
	return p.clauses
}

// Index embeds every clause so that Retrieve ranks by cosine similarity
func (p *Policy) Index(ctx context.Context, embedder Embedder) error {
	if len(p.clauses) == 0 {
		return nil
	}
	vectors, err := embedder.Embed(ctx, p.clauses)
	if err != nil {
		return fmt.Errorf("embedding policy clauses: %w", err)
	}
	if len(vectors) != len(p.clauses) {
		return fmt.Errorf("embedding policy clauses: got %d vectors for %d clauses", len(vectors), len(p.clauses))
	}
	p.vectors = vectors
	p.embedder = embedder
	return nil
}

// Retrieve returns the k clauses closest to the query. Ties keep document
// order, so an unrelated query still yields the opening clauses. If the query
// cannot be embedded the clauses are ranked by shared terms instead.
func (p *Policy) Retrieve(ctx context.Context, query string, k int) []string {
	if p == nil || len(p.clauses) == 0 || k <= 0 {
		return nil
	}

	var scores []float64
	if p.embedder != nil {
		similarities, err := p.similarities(ctx, query)
		if err != nil {
			slog.Warn("Embedding query failed, ranking clauses by shared terms", "error", err)
		} else {
			scores = similarities
		}
	}
	if scores == nil {
		scores = p.termScores(query)
	}

	order := make([]int, len(p.clauses))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	k = min(k, len(order))
	top := make([]string, k)
	for i := range top {
		top[i] = p.clauses[order[i]]
	}
	return top
}

// similarities scores each clause by cosine similarity with the query
func (p *Policy) similarities(ctx context.Context, query string) ([]float64, error) {
	vectors, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("got %d vectors for one query", len(vectors))
	}
	scores := make([]float64, len(p.vectors))
	for i, v := range p.vectors {
		scores[i] = cosine(vectors[0], v)
	}
	return scores, nil
}

// termScores counts the query terms each clause contains
func (p *Policy) termScores(query string) []float64 {
	terms := queryTerms(query)
	scores := make([]float64, len(p.clauses))
	for i, clause := range p.clauses {
		for _, term := range terms {
			if strings.Contains(clause, term) {
				scores[i]++
			}
		}
	}
	return scores
}

// cosine returns the cosine similarity of two vectors, or 0 when either is
// empty or their lengths differ
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// queryTerms splits a query into distinct words of at least two characters
func queryTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, word := range strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if utf8.RuneCountInString(word) < 2 || seen[word] {
			continue
		}
		seen[word] = true
		terms = append(terms, word)
	}
	return terms
}
