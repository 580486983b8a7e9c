package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fptidy/internal/config"
	"fptidy/pkg/tidy"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	// Input/Output flags
	outputFile string
	inputDir   string
	outputDir  string
	bodyOnly   bool

	// Configuration flags
	configFile string

	// Output control flags
	verbose bool
	debug   bool
	stats   bool
)

var rootCmd = &cobra.Command{
	Use:   "fptidy [file]",
	Short: "Tidy up HTML written by MS FrontPage",
	Long: `fptidy rewrites legacy FrontPage HTML into compact markup that renders
the same: presentational tags and attributes are folded into styles,
layout tables become divs and lists, and whitespace is normalized.

The input is read from the given file, or from stdin when there is none.

Examples:
  fptidy index.htm > clean.htm
  fptidy --input-dir site --output-dir clean --stats
  fptidy config > fptidy.yaml`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTidy,
}

func init() {
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output HTML file path (default: stdout)")
	rootCmd.Flags().StringVar(&inputDir, "input-dir", "", "Process all HTML files in directory")
	rootCmd.Flags().StringVar(&outputDir, "output-dir", "", "Output directory for batch processing")
	rootCmd.Flags().BoolVar(&bodyOnly, "body-only", false, "Write only the content of the body")

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file (default: built-in FrontPage settings)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log every cleanup step to stderr")
	rootCmd.Flags().BoolVar(&stats, "stats", false, "Show processing statistics")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig returns the configuration selected by --config
func loadConfig() (config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.Load(configFile)
}

func runTidy(cmd *cobra.Command, args []string) error {
	if err := validateArgs(args); err != nil {
		return err
	}

	log := newLogger(cmd.ErrOrStderr(), verbose, debug)
	defer func() { _ = log.Sync() }()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tidier, err := tidy.New(cfg, log)
	if err != nil {
		return err
	}

	startTime := time.Now()
	switch {
	case inputDir != "":
		err = runBatchProcessing(cmd, tidier, log)
	case len(args) == 1:
		err = runSingleFile(cmd, tidier, args[0])
	default:
		err = runStdin(cmd, tidier)
	}
	log.Debug("Finished", zap.Duration("elapsed", time.Since(startTime)))
	return err
}

// validateArgs validates command line arguments
func validateArgs(args []string) error {
	if len(args) == 1 && inputDir != "" {
		return errors.New("cannot specify both an input file and --input-dir")
	}
	if inputDir != "" && outputDir == "" {
		return errors.New("--output-dir required when using --input-dir")
	}
	if inputDir != "" && outputFile != "" {
		return errors.New("--output cannot be used with --input-dir")
	}
	return nil
}

// process tidies one document and picks the requested part of the result
func process(tidier *tidy.Tidier, src string) (string, *tidy.Result, error) {
	result, err := tidier.Tidy(src)
	if err != nil {
		return "", nil, err
	}
	if bodyOnly {
		return result.Body, result, nil
	}
	return result.HTML, result, nil
}

// runSingleFile processes a single input file
func runSingleFile(cmd *cobra.Command, tidier *tidy.Tidier, inputFile string) error {
	inputContent, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file %s: %w", inputFile, err)
	}

	out, result, err := process(tidier, string(inputContent))
	if err != nil {
		return fmt.Errorf("failed to tidy %s: %w", inputFile, err)
	}
	if err := writeOutput(cmd.OutOrStdout(), out, outputFile); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if stats {
		showProcessingStats(cmd.ErrOrStderr(), result.ProcessingStats, inputFile)
	}
	return nil
}

// runStdin processes HTML from stdin
func runStdin(cmd *cobra.Command, tidier *tidy.Tidier) error {
	inputContent, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read from stdin: %w", err)
	}

	out, result, err := process(tidier, string(inputContent))
	if err != nil {
		return fmt.Errorf("failed to tidy <stdin>: %w", err)
	}
	if err := writeOutput(cmd.OutOrStdout(), out, outputFile); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	// statistics go to stderr so they don't interfere with the HTML
	if stats {
		showProcessingStats(cmd.ErrOrStderr(), result.ProcessingStats, "<stdin>")
	}
	return nil
}

// runBatchProcessing processes all HTML files in a directory. A failing
// file does not stop the others; all failures are reported together.
func runBatchProcessing(cmd *cobra.Command, tidier *tidy.Tidier, log *zap.Logger) error {
	htmlFiles, err := findHTMLFiles(inputDir)
	if err != nil {
		return fmt.Errorf("failed to find HTML files: %w", err)
	}
	if len(htmlFiles) == 0 {
		return fmt.Errorf("no HTML files found in directory: %s", inputDir)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var (
		totalStats tidy.ProcessingStats
		errs       error
		done       int
	)
	for i, inputPath := range htmlFiles {
		log.Info("Processing", zap.Int("file", i+1), zap.Int("of", len(htmlFiles)), zap.String("path", inputPath))

		result, err := processFile(tidier, inputPath)
		if err != nil {
			log.Warn("Skipping file", zap.String("path", inputPath), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		totalStats.Add(result.ProcessingStats)
		done++
	}

	if stats {
		w := cmd.ErrOrStderr()
		fmt.Fprintf(w, "\nBatch Processing Summary:\n")
		fmt.Fprintf(w, "Files processed: %d of %d\n", done, len(htmlFiles))
		writeStats(w, totalStats)
	}
	return errs
}

// processFile tidies inputPath into the matching path under outputDir
func processFile(tidier *tidy.Tidier, inputPath string) (*tidy.Result, error) {
	inputContent, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", inputPath, err)
	}

	out, result, err := process(tidier, string(inputContent))
	if err != nil {
		return nil, fmt.Errorf("failed to tidy %s: %w", inputPath, err)
	}

	relPath, err := filepath.Rel(inputDir, inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output path for %s: %w", inputPath, err)
	}
	outputPath := filepath.Join(outputDir, relPath)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", filepath.Dir(outputPath), err)
	}
	if err := writeOutput(nil, out, outputPath); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return result, nil
}

// writeOutput writes content to a file, or to w without a file name
func writeOutput(w io.Writer, content, filename string) error {
	if filename == "" {
		_, err := io.WriteString(w, content)
		return err
	}
	return os.WriteFile(filename, []byte(content), 0644)
}

// findHTMLFiles finds all HTML files in a directory
func findHTMLFiles(dir string) ([]string, error) {
	var htmlFiles []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			ext := strings.ToLower(filepath.Ext(path))
			if ext == ".html" || ext == ".htm" {
				htmlFiles = append(htmlFiles, path)
			}
		}

		return nil
	})

	return htmlFiles, err
}

// showProcessingStats displays processing statistics
func showProcessingStats(w io.Writer, s tidy.ProcessingStats, filename string) {
	fmt.Fprintf(w, "\nProcessing Statistics for %s:\n", filename)
	writeStats(w, s)
}

func writeStats(w io.Writer, s tidy.ProcessingStats) {
	fmt.Fprintf(w, "  Tables elided: %d\n", s.TablesElided)
	fmt.Fprintf(w, "  Lists created: %d\n", s.ListsCreated)
	fmt.Fprintf(w, "  Wrappers collapsed: %d\n", s.WrappersCollapsed)
	fmt.Fprintf(w, "  Spans created: %d\n", s.SpansCreated)
	fmt.Fprintf(w, "  Paragraphs split: %d\n", s.ParagraphsSplit)
	fmt.Fprintf(w, "  Empty paragraphs removed: %d\n", s.EmptyParagraphs)
	fmt.Fprintf(w, "  Scripts removed: %d\n", s.Scripts)
	fmt.Fprintf(w, "  Comments removed: %d\n", s.Comments)
	fmt.Fprintf(w, "  Processing time: %dms\n", s.ProcessingTimeMs)
}
