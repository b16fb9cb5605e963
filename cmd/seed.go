package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/opportunity-agent/internal/catalog"
	"github.com/sells-group/opportunity-agent/pkg/search"
)

var (
	seedFile        string
	seedBatchSize   int
	seedConcurrency int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upload a team catalog file to the search index",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("seed"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		teams, err := catalog.LoadFile(seedFile)
		if err != nil {
			return err
		}
		if len(teams) == 0 {
			zap.L().Info("catalog file has no teams, nothing to upload")
			return nil
		}

		client := search.NewClient(cfg.Search.Endpoint, cfg.Search.Key, cfg.Search.TeamsIndex)
		if err := client.EnsureIndex(ctx); err != nil {
			return eris.Wrap(err, "seed: ensure index")
		}

		return uploadBatches(ctx, client, teams, seedBatchSize, seedConcurrency)
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "catalog file (.yaml or .xlsx)")
	seedCmd.Flags().IntVar(&seedBatchSize, "batch-size", 100, "teams per upload request")
	seedCmd.Flags().IntVar(&seedConcurrency, "concurrency", 4, "concurrent upload requests")
	_ = seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}

// uploadBatches pushes teams to the index in fixed-size batches. Uploads run
// concurrently behind a shared rate limiter so a large catalog does not trip
// the search service's request throttling.
func uploadBatches(ctx context.Context, client search.Client, teams []search.Team, batchSize, concurrency int) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("uploading team catalog",
		zap.Int("teams", len(teams)),
		zap.Int("batch_size", batchSize),
		zap.Int("concurrency", concurrency),
	)

	limiter := rate.NewLimiter(5, 1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var uploaded atomic.Int64

	for start := 0; start < len(teams); start += batchSize {
		end := min(start+batchSize, len(teams))
		batch := teams[start:end]
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			if err := client.UploadTeams(gctx, batch); err != nil {
				return eris.Wrap(err, "seed: upload batch")
			}
			uploaded.Add(int64(len(batch)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	zap.L().Info("catalog upload complete", zap.Int64("uploaded", uploaded.Load()))
	return nil
}
