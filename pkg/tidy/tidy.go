package tidy

import (
	"fmt"
	"time"

	"fptidy/internal/cleanup"
	"fptidy/internal/config"
	"fptidy/internal/html"
	"fptidy/internal/repair"

	"go.uber.org/zap"
)

// Tidier is the main FrontPage HTML cleanup engine
type Tidier struct {
	config     config.Config
	repairer   *repair.Repairer
	htmlParser *html.Parser
	cleaner    *cleanup.Cleaner
	log        *zap.Logger
}

// New creates a new tidier with the given configuration
func New(cfg config.Config, log *zap.Logger) (*Tidier, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cleaner, err := cleanup.New(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Tidier{
		config:     cfg,
		repairer:   repair.New(cfg, log),
		htmlParser: html.NewParser(log),
		cleaner:    cleaner,
		log:        log,
	}, nil
}

// NewWithDefaults creates a new tidier with the FrontPage defaults
func NewWithDefaults() (*Tidier, error) {
	return New(config.Default(), nil)
}

// Result contains the result of a tidy operation
type Result struct {
	HTML            string          // Complete cleaned document
	Body            string          // Content of the body only
	Title           string          // Page title
	ProcessingStats ProcessingStats // Counts and timing
}

// ProcessingStats contains counters from the tidy process
type ProcessingStats struct {
	cleanup.Stats
	html.PrepareStats
	ProcessingTimeMs int64 // Processing time in milliseconds
}

// Add accumulates other into s
func (s *ProcessingStats) Add(other ProcessingStats) {
	s.Stats.Add(other.Stats)
	s.Scripts += other.Scripts
	s.Comments += other.Comments
	s.Renamed += other.Renamed
	s.ProcessingTimeMs += other.ProcessingTimeMs
}

// Tidy cleans up one HTML page. The result is only returned when every
// step succeeded; there is no partial output.
func (t *Tidier) Tidy(src string) (*Result, error) {
	start := time.Now()

	// Step 1: fix markup the parser would misread
	repaired, err := t.repairer.Repair(src)
	if err != nil {
		return nil, fmt.Errorf("failed to repair HTML: %w", err)
	}

	// Step 2: parse and normalize
	doc, err := t.htmlParser.Parse(repaired)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	result := &Result{Title: doc.Title()}
	result.ProcessingStats.PrepareStats = doc.Prepare()

	// Step 3: rewrite the body
	body, err := doc.Body()
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	stats, err := t.cleaner.Run(body)
	if err != nil {
		return nil, fmt.Errorf("failed to clean up document: %w", err)
	}
	result.ProcessingStats.Stats = stats
	if err := doc.SetBody(body); err != nil {
		return nil, fmt.Errorf("failed to write body: %w", err)
	}

	// Step 4: serialize
	if result.HTML, err = doc.HTML(); err != nil {
		return nil, err
	}
	if result.Body, err = doc.BodyHTML(); err != nil {
		return nil, err
	}

	result.ProcessingStats.ProcessingTimeMs = time.Since(start).Milliseconds()
	t.log.Debug("Tidied document",
		zap.String("title", result.Title),
		zap.Int64("ms", result.ProcessingStats.ProcessingTimeMs))
	return result, nil
}

// TidyString is a convenience method that returns only the cleaned HTML
func (t *Tidier) TidyString(src string) (string, error) {
	result, err := t.Tidy(src)
	if err != nil {
		return "", err
	}
	return result.HTML, nil
}

// TidyHTML is a convenience function that tidies with the default configuration
func TidyHTML(src string) (string, error) {
	t, err := NewWithDefaults()
	if err != nil {
		return "", err
	}
	return t.TidyString(src)
}
