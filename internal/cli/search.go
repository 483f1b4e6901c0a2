package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"semsearch/internal/tui"
	"semsearch/internal/usecase"
)

var searchIndex string

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Interactive search box",
	Long: `Open a search box that re-ranks results on every keystroke. Press enter to
print the link of the selected result.`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchIndex, "index", "", "index file (default from config)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	index, err := loadIndex(indexPath(searchIndex, cfg))
	if err != nil {
		return err
	}

	emb, closeCache, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	session := usecase.NewSearchSession(newRetriever(cfg, emb, index), cfg.Search.TopK)
	defer session.Close()

	ctx := commandContext(cmd)
	model := tui.NewModel(ctx, session)
	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("search box failed: %w", err)
	}

	if chosen := model.Chosen(); chosen != nil {
		fmt.Println(chosen.Link)
	}
	return nil
}
