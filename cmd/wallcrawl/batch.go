package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wallcrawl/pkg/logger"
	"wallcrawl/pkg/models"
	"wallcrawl/pkg/scraper"
	"wallcrawl/pkg/ui"
)

var (
	batchLimit      int
	batchConcurrent int
	batchJSON       bool
	batchToken      string
)

var batchCmd = &cobra.Command{
	Use:   "batch <source>...",
	Short: "Fetch the first page of several sources concurrently",
	Example: `  wallcrawl batch https://example.com/a https://www.pinterest.com/someuser/ "neon city" --limit 10
  wallcrawl batch --json --concurrent 8 $(cat sources.txt)`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVarP(&batchLimit, "limit", "n", 0, "images per source (default from config)")
	batchCmd.Flags().IntVar(&batchConcurrent, "concurrent", 0, "sources fetched at the same time")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print one JSON object per source")
	batchCmd.Flags().StringVar(&batchToken, "token", "", "label of a stored bearer token to send")
}

type batchLine struct {
	Source string `json:"source"`
	models.Page
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{
		"concurrent": batchConcurrent,
	})
	if err != nil {
		return err
	}

	opts, err := tokenOptions(batchToken)
	if err != nil {
		return err
	}
	s := scraper.New(cfg, logger.GetLogger(), opts...)

	reqs := make([]scraper.Request, 0, len(args))
	for _, a := range args {
		if src := strings.TrimSpace(a); src != "" {
			reqs = append(reqs, scraper.Request{Source: src, Limit: batchLimit})
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	results := s.DiscoverAll(ctx, reqs)

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	total := 0
	for _, r := range results {
		total += len(r.Page.Items)
		if batchJSON {
			if err := enc.Encode(batchLine{Source: r.Request.Source, Page: r.Page}); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintln(out)
		ui.PrintHighlight(r.Request.Source)
		ui.PrintPage(out, r.Page)
	}

	ui.PrintSuccess(fmt.Sprintf("Fetched %d images from %d sources", total, len(results)))
	return nil
}
