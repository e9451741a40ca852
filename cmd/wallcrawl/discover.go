package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wallcrawl/pkg/auth"
	"wallcrawl/pkg/checkpoint"
	"wallcrawl/pkg/logger"
	"wallcrawl/pkg/models"
	"wallcrawl/pkg/ratelimit"
	"wallcrawl/pkg/scraper"
	"wallcrawl/pkg/ui"
)

var (
	// discover flags
	pageLimit   int
	startCursor string
	fetchAll    bool
	maxPages    int
	resume      bool
	reset       bool
	jsonOutput  bool
	tokenLabel  string
	rateLimit   int
	cursorDir   string
)

var discoverCmd = &cobra.Command{
	Use:   "discover <source>",
	Short: "Fetch one page (or every page) of images for a URL or search phrase",
	Long: `Fetch candidate images for a source.

A source is either an http(s) URL or a free-text phrase. Phrases are sent to
Pinterest pin search. Each call prints one page and the cursor for the next;
pass it back with --cursor, or let --resume remember it for you.`,
	Example: `  # First page of a board
  wallcrawl discover https://www.pinterest.com/someuser/wallpapers/

  # Next page using the cursor printed by the previous call
  wallcrawl discover https://example.com/gallery --cursor 20

  # Walk every page, 50 at a time, as JSON lines
  wallcrawl discover "dark forest wallpaper" --all --limit 50 --json

  # Continue where the last --resume run stopped
  wallcrawl discover https://photos.app.goo.gl/abc --resume`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().IntVarP(&pageLimit, "limit", "n", 0, "images per page (default from config)")
	discoverCmd.Flags().StringVar(&startCursor, "cursor", "", "cursor returned by a previous call")
	discoverCmd.Flags().BoolVar(&fetchAll, "all", false, "keep fetching until the source is exhausted")
	discoverCmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages (0 = no limit)")
	discoverCmd.Flags().BoolVar(&resume, "resume", false, "continue from the saved cursor and save progress")
	discoverCmd.Flags().BoolVar(&reset, "reset", false, "forget the saved cursor before starting")
	discoverCmd.Flags().BoolVar(&jsonOutput, "json", false, "print pages as JSON (one object per line)")
	discoverCmd.Flags().StringVar(&tokenLabel, "token", "", "label of a stored bearer token to send (see 'wallcrawl token')")
	discoverCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests per minute when paging with --all")
	discoverCmd.Flags().StringVar(&cursorDir, "checkpoint-dir", "", "directory for saved cursors")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	source := strings.TrimSpace(args[0])
	if source == "" {
		return fmt.Errorf("source must not be empty")
	}

	cfg, err := loadConfig(map[string]interface{}{
		"requests-per-minute": rateLimit,
		"checkpoint-dir":      cursorDir,
	})
	if err != nil {
		return err
	}
	log := logger.GetLogger().WithField("source", source)

	opts, err := tokenOptions(tokenLabel)
	if err != nil {
		return err
	}
	s := scraper.New(cfg, logger.GetLogger(), opts...)

	var store *checkpoint.Manager
	if resume || reset {
		store, err = checkpoint.NewManager(cfg.Checkpoint.Directory, source, logger.GetLogger())
		if err != nil {
			return err
		}
	}
	if reset {
		if err := store.Delete(); err != nil {
			return err
		}
		ui.PrintInfo("Saved cursor", "cleared")
	}

	ctx, cancel := signalContext()
	defer cancel()

	p := &pager{
		discoverer: s,
		limiter:    ratelimit.Unlimited{},
		store:      nil,
		logger:     log,
		maxPages:   1,
	}
	if fetchAll {
		p.limiter = ratelimit.New(&cfg.RateLimit)
		p.maxPages = maxPages
	}
	if resume {
		p.store = store
	}

	ui.PrintInfo("Source", source)
	progress := ui.NewProgressDisplay(os.Stderr, source, p.maxPages)
	defer progress.Finish()

	out := cmd.OutOrStdout()
	err = p.run(ctx, source, pageLimit, startCursor, func(page models.Page) error {
		if fetchAll && !quiet {
			progress.AddPage(len(page.Items))
		}
		return writePage(out, page, jsonOutput)
	})
	if err != nil {
		return err
	}

	if fetchAll {
		progress.Finish()
		pages, items := progress.Totals()
		ui.PrintSuccess(fmt.Sprintf("Fetched %d images in %d pages", items, pages))
	}
	return nil
}

// tokenOptions loads the stored token for label, if one was requested
func tokenOptions(label string) ([]scraper.Option, error) {
	if label == "" {
		return nil, nil
	}
	manager, err := auth.NewManager("")
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	token, err := manager.Retrieve(label)
	if err != nil {
		return nil, fmt.Errorf("no token stored for %q: run 'wallcrawl token set %s'", label, label)
	}
	return []scraper.Option{scraper.WithBearerToken(token.Value)}, nil
}

func writePage(w io.Writer, page models.Page, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(page)
	}
	ui.PrintPage(w, page)
	return nil
}

// discoverer is the part of the scraper the pager needs
type discoverer interface {
	Discover(ctx context.Context, source string, limit int, cursor string) models.Page
}

// pager walks a source page by page, throttled by limiter, optionally
// recording progress in store.
type pager struct {
	discoverer discoverer
	limiter    ratelimit.Limiter
	store      *checkpoint.Manager
	logger     logger.Logger
	maxPages   int // <= 0 means until exhausted
}

func (p *pager) run(ctx context.Context, source string, limit int, cursor string, each func(models.Page) error) error {
	var cp *checkpoint.Checkpoint
	if p.store != nil {
		saved, err := p.store.Load()
		if err != nil {
			return err
		}
		if saved == nil {
			saved = &checkpoint.Checkpoint{}
		}
		cp = saved
		if cursor == "" && cp.Cursor != "" {
			cursor = cp.Cursor
			p.logger.WithFields(map[string]interface{}{
				"pages": cp.Pages,
				"items": cp.Items,
			}).Info("Resuming from saved cursor")
		}
	}

	seen := map[string]bool{}
	for n := 0; p.maxPages <= 0 || n < p.maxPages; n++ {
		if n > 0 {
			start := time.Now()
			if err := p.limiter.Wait(ctx); err != nil {
				return err
			}
			logger.LogRateLimit(p.logger, source, time.Since(start))
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		seen[cursor] = true
		page := p.discoverer.Discover(ctx, source, limit, cursor)

		if cp != nil {
			// An empty terminal page for a non-empty cursor is how failures
			// surface; keep the checkpoint so the next run can retry.
			if len(page.Items) == 0 && !page.HasMore() && cursor != "" {
				p.logger.Warn("Empty page for saved cursor, keeping checkpoint")
			} else if err := p.store.Record(cp, page); err != nil {
				return err
			}
		}
		if err := each(page); err != nil {
			return err
		}

		if !page.HasMore() {
			return nil
		}
		if seen[page.NextCursor] {
			p.logger.WithField("cursor", page.NextCursor).Warn("Cursor repeated, stopping")
			return nil
		}
		cursor = page.NextCursor
	}
	return nil
}

var _ discoverer = (*scraper.Scraper)(nil)
