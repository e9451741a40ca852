package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressDisplay prints a single updating line while pages are fetched
type ProgressDisplay struct {
	mu        sync.Mutex
	w         io.Writer
	source    string
	maxPages  int
	pages     int
	items     int
	startTime time.Time
	active    bool
}

// NewProgressDisplay tracks paging over source. maxPages <= 0 means unbounded.
func NewProgressDisplay(w io.Writer, source string, maxPages int) *ProgressDisplay {
	return &ProgressDisplay{
		w:         w,
		source:    source,
		maxPages:  maxPages,
		startTime: time.Now(),
	}
}

// AddPage records a fetched page with n items and redraws the line
func (p *ProgressDisplay) AddPage(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pages++
	p.items += n
	p.active = true
	fmt.Fprintf(p.w, "\r%s\r%s", strings.Repeat(" ", 100), p.line())
}

// Finish ends the progress line
func (p *ProgressDisplay) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		fmt.Fprintln(p.w)
		p.active = false
	}
}

// Totals returns pages and items seen so far
func (p *ProgressDisplay) Totals() (pages, items int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pages, p.items
}

func (p *ProgressDisplay) line() string {
	elapsed := time.Since(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.items) / elapsed.Minutes()
	}

	pages := fmt.Sprintf("%d pages", p.pages)
	if p.maxPages > 0 {
		const width = 20
		filled := min(width, p.pages*width/p.maxPages)
		bar := strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
		pages = fmt.Sprintf("[%s] %d/%d pages", bar, p.pages, p.maxPages)
	}

	return fmt.Sprintf("%s %s • %d images • %.1f/min • %s",
		labelStyle.Render(truncate(p.source, 40)),
		pages,
		p.items,
		rate,
		elapsed.Round(time.Second),
	)
}
