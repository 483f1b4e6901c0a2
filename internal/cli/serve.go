package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"semsearch/internal/adapter/store"
	"semsearch/internal/domain"
	"semsearch/internal/server"
	"semsearch/internal/watcher"
)

var (
	serveIndex string
	serveAddr  string
	serveWatch string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	Long: `Serve GET /api/search?q=&k= and GET /healthz.

With --watch the docs directory is watched; every change rebuilds the whole
index, saves it and swaps it in without interrupting queries.

Examples:
  semsearch serve
  semsearch serve --addr :9000 --watch docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveIndex, "index", "", "index file (default from config)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&serveWatch, "watch", "", "docs directory to watch and re-index")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if serveAddr != "" {
		cfg.Serve.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emb, closeCache, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	path := indexPath(serveIndex, cfg)
	st := store.NewJSONStore(path)

	index, err := st.Load()
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && serveWatch != "":
		index = domain.NewSectionIndex()
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("no index found at %s. Run 'semsearch index' first", path)
	default:
		return err
	}

	r := newRetriever(cfg, emb, index)
	srv := server.New(r, r, cfg.Search.TopK, slog.Default())

	var w *watcher.Watcher
	if serveWatch != "" {
		indexUC, walker, err := newIndexUseCase(cfg, emb)
		if err != nil {
			return err
		}
		rebuild := func(ctx context.Context) error {
			_, err := indexUC.Rebuild(ctx, serveWatch, st, r.Swap)
			return err
		}

		// The served index may predate the docs; rebuild once before watching.
		if err := rebuild(ctx); err != nil {
			slog.Error("initial_rebuild_failed", slog.String("error", err.Error()))
		}

		w = watcher.New(serveWatch, cfg.Serve.Debounce, walker, rebuild)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.Serve.Addr)
	})
	if w != nil {
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	return g.Wait()
}
