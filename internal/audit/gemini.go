package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/zombor/receipt-audit/internal/parsing"
)

// geminiEmbedBatch is the most texts one batch embedding request accepts
const geminiEmbedBatch = 100

// Gemini implements the Reasoner and Embedder interfaces using Google Gemini
type Gemini struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	embedder *genai.EmbeddingModel
}

// NewGemini creates a new Gemini Reasoner instance
func NewGemini(apiKey string, modelName string, embedModelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	if embedModelName == "" {
		embedModelName = "text-embedding-004"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	// Audits should be repeatable
	model.SetTemperature(0)

	return &Gemini{
		client:   client,
		model:    model,
		embedder: client.EmbeddingModel(embedModelName),
	}, nil
}

// Reason asks Gemini to judge the receipt against the clauses
func (g *Gemini) Reason(ctx context.Context, receipt *parsing.Receipt, clauses []string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	prompt, err := buildPrompt(receipt, clauses)
	if err != nil {
		return nil, err
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(systemPrompt), genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	result, err := parseResultJSON(responseText.String())
	if err != nil {
		return nil, fmt.Errorf("parsing audit result: %w", err)
	}
	return result, nil
}

// Embed embeds texts in batches with the Gemini embedding model
func (g *Gemini) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiEmbedBatch {
		batch := g.embedder.NewBatch()
		for _, text := range texts[start:min(start+geminiEmbedBatch, len(texts))] {
			batch.AddContent(genai.Text(text))
		}

		resp, err := g.embedder.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embedding content: %w", err)
		}
		for _, embedding := range resp.Embeddings {
			vectors = append(vectors, embedding.Values)
		}
	}
	return vectors, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
