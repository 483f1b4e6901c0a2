package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"semsearch/internal/domain"
	"semsearch/internal/tui"
	"semsearch/internal/usecase"
)

var (
	queryText  string
	queryTopK  int
	queryJSON  bool
	queryIndex string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the index",
	Long: `Rank indexed sections by semantic similarity to the query.

Examples:
  semsearch query -q "install the package"
  semsearch query -q "configuration" -k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().StringVar(&queryIndex, "index", "", "index file (default from config)")
	queryCmd.MarkFlagRequired("query")
}

type queryOutput struct {
	Query   string                `json:"query"`
	Status  string                `json:"status"`
	Results []domain.RankedResult `json:"results"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	index, err := loadIndex(indexPath(queryIndex, cfg))
	if err != nil {
		return err
	}

	emb, closeCache, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	topK := cfg.Search.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	session := usecase.NewSearchSession(newRetriever(cfg, emb, index), topK)
	defer session.Close()

	res, _ := session.Search(commandContext(cmd), queryText)

	if queryJSON {
		output, _ := json.MarshalIndent(queryOutput{
			Query:   queryText,
			Status:  res.Status.String(),
			Results: res.Results,
		}, "", "  ")
		fmt.Println(string(output))
		return res.Err
	}

	if res.Status == usecase.StatusUnavailable {
		fmt.Fprintln(os.Stderr, "Search is temporarily unavailable.")
		return res.Err
	}
	if len(res.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results for: %s\n\n", len(res.Results), queryText)
	for i, r := range res.Results {
		title := r.DocumentPath
		if r.Header != "" {
			title = fmt.Sprintf("%s > %s", r.DocumentPath, r.Header)
		}
		fmt.Printf("--- [%d] %s (score: %.3f) ---\n", i+1, title, r.Score)
		fmt.Println(r.Link)
		if r.Content != "" {
			fmt.Println(tui.Snippet(r.Content, 500))
		}
		fmt.Println()
	}

	return nil
}
