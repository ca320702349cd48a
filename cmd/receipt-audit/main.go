package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-audit/internal/audit"
	"github.com/zombor/receipt-audit/internal/ocr"
	"github.com/zombor/receipt-audit/internal/parsing"
	"github.com/zombor/receipt-audit/internal/receipt"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	if len(os.Args) > 1 && os.Args[1] == "parse" {
		if err := runParse(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fs := ff.NewFlagSet("receipt-audit")
	var (
		port             = fs.IntLong("port", 8080, "HTTP server port")
		dbPath           = fs.StringLong("db", "receipt-audit.db", "Database file path")
		storagePath      = fs.StringLong("storage", "./receipts", "Storage directory path")
		ocrURL           = fs.StringLong("ocr-url", "http://localhost:8866", "PaddleOCR serving base URL")
		ocrMinConfidence = fs.Float64Long("ocr-min-confidence", ocr.DefaultMinConfidence, "Drop detections below this recognition score")
		reasonerType     = fs.StringLong("reasoner", "rules", "Audit reasoner: 'gemini', 'ollama' or 'rules'")
		geminiKey        = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel      = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		geminiEmbedModel = fs.StringLong("gemini-embed-model", "text-embedding-004", "Google Gemini embedding model for policy retrieval")
		ollamaURL        = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel      = fs.StringLong("ollama-model", "qwen2.5", "Ollama model name (e.g., qwen2.5, exaone3.5)")
		ollamaEmbedModel = fs.StringLong("ollama-embed-model", "nomic-embed-text", "Ollama embedding model for policy retrieval")
		policyPath       = fs.StringLong("policy", "", "Expense policy document, text or PDF (optional)")
		authUser         = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass         = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel         = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		showVersion      = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_AUDIT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Initialize database
	slog.Info("Initializing database...")
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize recognizer
	slog.Info("Initializing OCR client...", "url", *ocrURL)
	recognizer, err := ocr.NewPaddleClient(*ocrURL, *ocrMinConfidence)
	if err != nil {
		slog.Error("Failed to initialize OCR client", "error", err)
		os.Exit(1)
	}

	// Initialize reasoner based on type
	var (
		reasoner audit.Reasoner
		embedder audit.Embedder
	)
	switch *reasonerType {
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini reasoner...", "model", *geminiModel)
		gemini, err := audit.NewGemini(apiKey, *geminiModel, *geminiEmbedModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
		reasoner, embedder = gemini, gemini
	case "ollama":
		slog.Info("Initializing Ollama reasoner...", "url", *ollamaURL, "model", *ollamaModel)
		ollama, err := audit.NewOllama(*ollamaURL, *ollamaModel, *ollamaEmbedModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
		reasoner, embedder = ollama, ollama
	case "rules":
		slog.Info("Using rule-based audits")
	default:
		slog.Error("Invalid reasoner type", "type", *reasonerType, "valid", "gemini, ollama or rules")
		os.Exit(1)
	}

	// Load policy; clauses are embedded when a model back end is configured
	var policy *audit.Policy
	if *policyPath != "" {
		policy, err = audit.LoadPolicy(context.Background(), *policyPath, embedder)
		if err != nil {
			slog.Error("Failed to load policy", "path", *policyPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Policy loaded", "path", *policyPath, "clauses", len(policy.Clauses()))
	} else if reasoner != nil {
		slog.Warn("No policy document given, audits will use the rules")
	}

	auditor := audit.NewAuditor(policy, reasoner)
	defer auditor.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize service
	receiptService := receipt.NewService(db, recognizer, store, auditor)

	// Initialize server
	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(receiptService, basicAuth)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	if err := server.Start(ctx, addr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutting down...")
}

// runParse parses a saved recognizer result and prints the receipt as JSON.
// JSON files hold {"detections": [...]}; any other file is read as one line per row.
func runParse(args []string) error {
	fs := ff.NewFlagSet("parse")
	compact := fs.BoolLong("compact", "Print the receipt on one line")
	if err := ff.Parse(fs, args); err != nil {
		return fmt.Errorf("%w\n%s", err, ffhelp.Flags(fs))
	}
	if len(fs.GetArgs()) != 1 {
		return fmt.Errorf("usage: receipt-audit parse [--compact] <detections.json|lines.txt>")
	}
	path := fs.GetArgs()[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	parser := parsing.NewParser()
	var result *parsing.Receipt
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var input struct {
			Detections []ocr.Detection `json:"detections"`
		}
		if err := json.Unmarshal(data, &input); err != nil {
			return fmt.Errorf("decoding detections: %w", err)
		}
		result = parser.ParseDetections(input.Detections)
	} else {
		result = parser.Parse(strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n"))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if !*compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
