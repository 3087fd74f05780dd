package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/contentgrade/internal/model"
	"github.com/sells-group/contentgrade/internal/pipeline"
)

var (
	batchFile        string
	batchConcurrency int
	batchSets        []string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Grade every URL listed in a file",
	Long:  "Reads one URL per line (blank lines and lines starting with # are skipped), runs them concurrently and prints a JSON array of results in input order.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		overrides, err := parseOverrides(batchSets)
		if err != nil {
			return err
		}

		env, err := initPipeline(cfg, "run")
		if err != nil {
			return err
		}

		f, err := os.Open(batchFile)
		if err != nil {
			return eris.Wrap(err, "batch: open url file")
		}
		defer f.Close()

		urls, err := readURLs(f)
		if err != nil {
			return err
		}

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		items := processBatch(ctx, urls, concurrency, overrides, env.Pipeline)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "file with one URL per line (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent runs (default from config)")
	batchCmd.Flags().StringArrayVar(&batchSets, "set", nil, "run option override as key=value, applied to every URL")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

// batchItem is the outcome of one URL in a batch.
type batchItem struct {
	URL    string           `json:"url"`
	Result *model.RunResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
	Stage  string           `json:"stage,omitempty"`
}

// readURLs returns the non-empty, non-comment lines of r.
func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "batch: read url file")
	}
	return urls, nil
}

// processBatch runs every URL with at most concurrency runs in flight. Each
// run gets its own state; a failed run is recorded and does not stop the
// others. Items are returned in input order.
func processBatch(ctx context.Context, urls []string, concurrency int, overrides map[string]any, p runner) []batchItem {
	items := make([]batchItem, len(urls))
	if len(urls) == 0 {
		zap.L().Info("no urls to process")
		return items
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("urls", len(urls)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var relevant, failed atomic.Int64

	for i, u := range urls {
		g.Go(func() error {
			log := zap.L().With(zap.String("url", u))
			item := batchItem{URL: u}

			result, err := p.Run(gctx, u, overrides)
			if err != nil {
				failed.Add(1)
				item.Error = err.Error()
				var se *pipeline.StageError
				if errors.As(err, &se) {
					item.Stage = string(se.Stage)
				}
				log.Error("run failed", zap.Error(err))
			} else {
				item.Result = result
				if result.Relevant() {
					relevant.Add(1)
				}
			}
			items[i] = item
			return nil // don't abort batch on individual failure
		})
	}

	_ = g.Wait()

	zap.L().Info("batch complete",
		zap.Int("total", len(urls)),
		zap.Int64("relevant", relevant.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return items
}
