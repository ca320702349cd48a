package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Recognizer turns a receipt image into raw text detections
type Recognizer interface {
	// Recognize runs text recognition on an image or PDF
	Recognize(ctx context.Context, imageData []byte, contentType string) ([]Detection, error)
}

// DefaultMinConfidence drops detections the recognizer itself is unsure about
const DefaultMinConfidence = 0.5

// PaddleClient implements Recognizer against a PaddleOCR serving endpoint
type PaddleClient struct {
	baseURL       string
	minConfidence float64
	client        *http.Client
}

// NewPaddleClient creates a new PaddleOCR client.
// A non-positive minConfidence falls back to DefaultMinConfidence.
func NewPaddleClient(baseURL string, minConfidence float64) (*PaddleClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("paddle ocr base url is required")
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}

	return &PaddleClient{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		minConfidence: minConfidence,
		client: &http.Client{
			Timeout: 120 * time.Second, // CPU inference on large photos is slow
		},
	}, nil
}

// paddleRequest is the body of the serving /ocr endpoint. fileType 1 means image.
type paddleRequest struct {
	File     string `json:"file"`
	FileType int    `json:"fileType"`
}

type paddleResponse struct {
	LogID     string `json:"logId"`
	ErrorCode int    `json:"errorCode"`
	ErrorMsg  string `json:"errorMsg"`
	Result    struct {
		OCRResults []struct {
			PrunedResult paddlePage `json:"prunedResult"`
		} `json:"ocrResults"`
	} `json:"result"`
}

type paddlePage struct {
	RecTexts  []string      `json:"rec_texts"`
	RecScores []float64     `json:"rec_scores"`
	RecPolys  [][][]float64 `json:"rec_polys"`
}

// Recognize sends the image to the OCR service and returns confident detections
func (p *PaddleClient) Recognize(ctx context.Context, imageData []byte, contentType string) ([]Detection, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	pngData, err := prepareImage(imageData, contentType)
	if err != nil {
		return nil, err
	}

	jsonData, err := json.Marshal(paddleRequest{
		File:     base64.StdEncoding.EncodeToString(pngData),
		FileType: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/ocr", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ocr API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ocr API error (status %d): %s", resp.StatusCode, string(body))
	}

	var ocrResp paddleResponse
	if err := json.NewDecoder(resp.Body).Decode(&ocrResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if ocrResp.ErrorCode != 0 {
		return nil, fmt.Errorf("ocr API error (code %d): %s", ocrResp.ErrorCode, ocrResp.ErrorMsg)
	}
	if len(ocrResp.Result.OCRResults) == 0 {
		return []Detection{}, nil
	}

	return p.detections(ocrResp.Result.OCRResults[0].PrunedResult), nil
}

// detections zips the parallel result arrays, skipping malformed or weak entries
func (p *PaddleClient) detections(page paddlePage) []Detection {
	n := min(len(page.RecTexts), len(page.RecScores), len(page.RecPolys))
	detections := make([]Detection, 0, n)
	for i := 0; i < n; i++ {
		if page.RecScores[i] < p.minConfidence {
			continue
		}
		box, err := boxFromPolygon(page.RecPolys[i])
		if err != nil {
			slog.Warn("Skipping detection with malformed polygon", "index", i, "error", err)
			continue
		}
		detections = append(detections, Detection{
			Text:       strings.TrimSpace(page.RecTexts[i]),
			Confidence: page.RecScores[i],
			Box:        box,
		})
	}
	return detections
}

// Extract recognizes an image and merges the detections into lines
func Extract(ctx context.Context, r Recognizer, imageData []byte, contentType string) ([]Line, error) {
	detections, err := r.Recognize(ctx, imageData, contentType)
	if err != nil {
		return nil, fmt.Errorf("recognizing text: %w", err)
	}
	return MergeLines(detections), nil
}
