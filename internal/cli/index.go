package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"semsearch/internal/adapter/store"
	"semsearch/internal/domain"
	"semsearch/internal/usecase"
)

var (
	indexGranularity string
	indexWorkers     int
)

var indexCmd = &cobra.Command{
	Use:   "index <docsDirectory> [outputFile]",
	Short: "Build the embeddings index for a docs directory",
	Long: `Split every markdown file under docsDirectory into sections, embed each
section and write the index to outputFile (default embeddings.json).

Sections whose normalized content is shorter than index.min_section_length are
kept without an embedding and never appear in search results.

Examples:
  semsearch index docs
  semsearch index docs site/embeddings.json
  semsearch index docs --granularity documents`,
	Args: cobra.MaximumNArgs(2),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVar(&indexGranularity, "granularity", "", "index granularity: sections or documents (default from config)")
	indexCmd.Flags().IntVar(&indexWorkers, "workers", 0, "documents processed in parallel (default from config)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: docs directory is required", domain.ErrConfiguration)
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("%w: invalid path: %v", domain.ErrConfiguration, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: docs directory does not exist: %s", domain.ErrConfiguration, args[0])
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: path is not a directory: %s", domain.ErrConfiguration, args[0])
	}

	cfg := GetConfig()
	output := cfg.Store.Output
	if len(args) > 1 {
		output = args[1]
	}
	if indexGranularity != "" {
		cfg.Index.Granularity = indexGranularity
	}
	if indexWorkers > 0 {
		cfg.Index.Workers = indexWorkers
	}

	emb, closeCache, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	indexUC, _, err := newIndexUseCase(cfg, emb)
	if err != nil {
		return err
	}

	fmt.Printf("Scanning %s...\n", path)
	docs, err := indexUC.Scan(path)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	fmt.Printf("Found %d markdown files\n", len(docs))

	start := time.Now()
	index, result, err := indexUC.BuildIndex(commandContext(cmd), docs, newProgress(len(docs)))
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	st := store.NewJSONStore(output)
	if err := st.Save(index); err != nil {
		return err
	}
	slog.Info("index_saved",
		slog.String("path", output),
		slog.String("shape", index.Shape.String()),
		slog.Duration("elapsed", time.Since(start)))

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Files indexed:     %d\n", result.FilesIndexed)
	if index.Shape == domain.ShapeSections {
		fmt.Printf("  Sections:          %d\n", result.SectionsIndexed)
	}
	fmt.Printf("  Embedded:          %d\n", result.SectionsEmbedded)
	fmt.Printf("  Skipped (short):   %d\n", result.SectionsSkipped)
	fmt.Printf("  Embedding model:   %s\n", emb.ModelName())
	fmt.Printf("\nIndex stored at: %s\n", output)
	return nil
}

// newProgress reports per-file progress: a progress bar on a terminal and one
// line per file otherwise.
func newProgress(total int) usecase.ProgressFunc {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return func(processed, total int, currentFile string) {
			fmt.Printf("Processing %s (%d/%d)\n", currentFile, processed, total)
		}
	}

	var mu sync.Mutex
	startTime := time.Now()
	bar := progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	return func(processed, total int, currentFile string) {
		mu.Lock()
		defer mu.Unlock()

		bar.Set(processed)

		elapsed := time.Since(startTime)
		rate := float64(processed) / elapsed.Seconds()
		remaining := total - processed
		if rate > 0 {
			eta := time.Duration(float64(remaining)/rate) * time.Second
			bar.Describe(fmt.Sprintf("[cyan]Indexing[reset] %s ETA: %s", currentFile, formatDuration(eta)))
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
