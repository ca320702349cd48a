package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/receipt-audit/internal/ocr"
	"github.com/zombor/receipt-audit/internal/parsing"
)

const (
	// maxUploadSize is the largest receipt image accepted
	maxUploadSize = 10 << 20
	// maxJSONBodySize bounds detection and receipt request bodies
	maxJSONBodySize = 1 << 20
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// jsonError writes an {"error": message} response with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	writeJSON(w, code, map[string]string{
		"error": message,
	})
}

// lookupError maps a service error to a response
func lookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		jsonError(w, "Receipt not found", http.StatusNotFound)
		return
	}
	slog.Error("Error loading receipt", "error", err)
	jsonError(w, "Internal server error", http.StatusInternalServerError)
}

// contentTypeOf takes the part's declared type, or guesses from the extension
func contentTypeOf(declared, filename string) string {
	contentType := strings.ToLower(strings.TrimSpace(declared))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".bmp":
		return "image/bmp"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// decodeJSONBody decodes a size-limited JSON request body into v. On failure
// it writes the error response and returns false.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "Request body is too large", http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleExtract recognizes an uploaded receipt and returns the parsed receipt
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope around the file
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "File is too large. Maximum size is 10MB.", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		jsonError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		jsonError(w, "File is too large. Maximum size is 10MB.", http.StatusRequestEntityTooLarge)
		return
	}

	contentType := contentTypeOf(header.Header.Get("Content-Type"), header.Filename)
	if !IsSupportedType(contentType) {
		jsonError(w, "Unsupported image type", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	record, err := s.service.ProcessReceipt(r.Context(), header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error processing receipt", "filename", header.Filename, "error", err)
		if errors.Is(err, ErrUnsupportedType) {
			jsonError(w, "Unsupported image type", http.StatusBadRequest)
			return
		}
		jsonError(w, "Error processing receipt", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, record.Receipt)
}

// handleParse parses detections supplied by the client
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Detections []ocr.Detection `json:"detections"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	writeJSON(w, http.StatusOK, s.service.ParseDetections(req.Detections))
}

// handleAuditCheck audits a parsed receipt against the policy
func (s *Server) handleAuditCheck(w http.ResponseWriter, r *http.Request) {
	var receipt parsing.Receipt
	if !decodeJSONBody(w, r, &receipt) {
		return
	}
	if receipt.ReceiptID == "" {
		jsonError(w, "receipt_id is required", http.StatusBadRequest)
		return
	}
	if receipt.Items == nil {
		receipt.Items = []parsing.LineItem{}
	}

	result, err := s.service.CheckAudit(r.Context(), &receipt)
	if err != nil {
		slog.Error("Error auditing receipt", "receipt_id", receipt.ReceiptID, "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListReceipts returns a list of all stored receipts
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListReceipts()
	if err != nil {
		slog.Error("Error listing receipts", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// handleGetReceipt returns a single stored receipt
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	record, err := s.service.GetReceipt(r.PathValue("id"))
	if err != nil {
		lookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleGetReceiptFile returns the uploaded file for a receipt
func (s *Server) handleGetReceiptFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetReceiptFile(r.PathValue("id"))
	if err != nil {
		lookupError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteReceipt deletes a stored receipt
func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteReceipt(r.PathValue("id")); err != nil {
		lookupError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
