package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"wallcrawl/pkg/models"
)

var (
	cyan    = lipgloss.Color("#00FFFF")
	magenta = lipgloss.Color("#FF00FF")
	green   = lipgloss.Color("#39FF14")
	yellow  = lipgloss.Color("#FFFF00")
	red     = lipgloss.Color("#FF3030")
	dim     = lipgloss.Color("#808080")

	labelStyle     = lipgloss.NewStyle().Foreground(cyan).Bold(true)
	valueStyle     = lipgloss.NewStyle().Foreground(yellow)
	successStyle   = lipgloss.NewStyle().Foreground(green).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(red).Bold(true)
	warningStyle   = lipgloss.NewStyle().Foreground(yellow)
	highlightStyle = lipgloss.NewStyle().Foreground(magenta).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(dim)
	headerStyle    = lipgloss.NewStyle().Foreground(cyan).Bold(true).Underline(true)
)

var (
	mu        sync.Mutex
	out       io.Writer = os.Stderr
	quietMode bool
)

// SetOutput redirects status messages; results always go to the writer
// passed to PrintPage.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(quiet bool) {
	mu.Lock()
	defer mu.Unlock()
	quietMode = quiet
}

func emit(always bool, line string) {
	mu.Lock()
	defer mu.Unlock()
	if quietMode && !always {
		return
	}
	fmt.Fprintln(out, line)
}

// PrintError prints an error message, with an optional detail
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	emit(true, errorStyle.Render(msg))
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	emit(false, successStyle.Render(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label, value string) {
	emit(false, labelStyle.Render(label)+": "+valueStyle.Render(value))
}

// PrintWarning prints a warning, with an optional detail
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	emit(false, warningStyle.Render(msg))
}

// PrintHighlight prints a highlighted banner line
func PrintHighlight(msg string) {
	emit(false, highlightStyle.Render(msg))
}

// PrintPage renders one discovery page as a table
func PrintPage(w io.Writer, page models.Page) {
	if len(page.Items) == 0 {
		fmt.Fprintln(w, dimStyle.Render("(no images)"))
	} else {
		titleW, urlW := 5, 9
		for _, it := range page.Items {
			titleW = max(titleW, lipgloss.Width(truncate(it.Title, 40)))
			urlW = max(urlW, lipgloss.Width(it.ImageURL))
		}
		row := func(title, image, size string, style lipgloss.Style) string {
			return strings.Join([]string{
				style.Width(titleW).Render(title),
				style.Width(urlW).Render(image),
				style.Render(size),
			}, "  ")
		}

		fmt.Fprintln(w, row("TITLE", "IMAGE URL", "SIZE", headerStyle))
		for _, it := range page.Items {
			size := "-"
			if it.Width > 0 && it.Height > 0 {
				size = fmt.Sprintf("%dx%d", it.Width, it.Height)
			}
			fmt.Fprintln(w, row(truncate(it.Title, 40), it.ImageURL, size, lipgloss.NewStyle()))
		}
	}

	if page.HasMore() {
		fmt.Fprintln(w, labelStyle.Render("next cursor")+": "+valueStyle.Render(page.NextCursor))
	} else {
		fmt.Fprintln(w, dimStyle.Render("no more pages"))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
