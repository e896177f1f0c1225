package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lumen/internal/ebook"
	"lumen/internal/embedding"
	"lumen/internal/indexing"
	"lumen/internal/text"
)

func newIndexCmd() *cobra.Command {
	var (
		mode     string
		provider string
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index ebooks into the document store",
		Long: `Index scans the ebooks directory for EPUB and PDF files, extracts and
chunks their text, embeds each chunk and stores it in the embedding
provider's collection.

Mode selects which books are touched:
  new   only books not yet in the indexing ledger (default)
  all   every book, reprocessed from scratch

Provider selects the embedding backend:
  local   built-in hash embeddings, always available (default)
  gemini  Google text-embedding-004, requires an API key (set-key)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			indexMode, err := indexing.ParseMode(mode)
			if err != nil {
				return err
			}
			providerID, err := embedding.ParseProviderID(provider)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			if err := a.waitForStore(ctx); err != nil {
				return err
			}

			emb, err := embedding.New(ctx, providerID, a.geminiKey(ctx))
			if err != nil {
				return err
			}

			pipeline := indexing.NewPipeline(
				ebook.NewExtractor(),
				text.NewChunker(cfg.ChunkSize),
				emb,
				a.store,
				a.ledger,
				a.registry,
			)
			pipeline.OnProgress(func(ev indexing.ProgressEvent) {
				if ev.ChunkCount == 0 {
					fmt.Printf("[%d/%d] %s\n", ev.BookIndex, ev.BookCount, ev.Path)
					return
				}
				fmt.Printf("\r  chunk %d/%d", ev.ChunkIndex, ev.ChunkCount)
				if ev.ChunkIndex == ev.ChunkCount {
					fmt.Println()
				}
			})

			summary, err := pipeline.Run(ctx, cfg.EbooksDir, indexMode)
			if err != nil {
				return err
			}

			fmt.Printf("\nIndexing complete: %d processed, %d skipped, %d failed, %d chunks stored\n",
				summary.Processed, summary.Skipped, summary.Failed, summary.TotalChunks)
			for _, book := range summary.Books {
				fmt.Printf("  %s by %s (%d chunks)\n", book.Title, book.Author, book.Chunks)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "new", "Which books to index: new or all")
	cmd.Flags().StringVar(&provider, "provider", "local", "Embedding provider: local or gemini")

	return cmd
}
