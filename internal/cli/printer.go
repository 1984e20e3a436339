package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gophersatwork/jsonmin"
	"github.com/mattn/go-isatty"
)

var (
	greenColor = lipgloss.AdaptiveColor{Light: "#00875f", Dark: "#5fd787"}
	redColor   = lipgloss.AdaptiveColor{Light: "#d70000", Dark: "#ff5f5f"}
	grayColor  = lipgloss.AdaptiveColor{Light: "#6c6c6c", Dark: "#8a8a8a"}

	flagStyle  = lipgloss.NewStyle().Foreground(greenColor).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(redColor).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(grayColor)
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// ErrorStyle renders err the way the command line reports failures.
func ErrorStyle(err error) string {
	return errorStyle.Render("Error: " + err.Error())
}

type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, color: isTerminal(w)}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

// Report prints one line per selected asset followed by a summary and the
// failures.
func (p *printer) Report(r *jsonmin.Report) {
	width := 0
	for _, o := range r.Outcomes {
		width = max(width, len(o.Asset))
	}

	for _, o := range r.Outcomes {
		name := o.Asset + strings.Repeat(" ", width-len(o.Asset))
		switch {
		case o.Published():
			fmt.Fprintf(p.w, "  %s  %9s  %s  %s\n",
				name,
				humanize.Bytes(uint64(o.Size)),
				p.render(flagStyle, "[minimized]"),
				p.render(mutedStyle, o.Status.String()))
		case o.Status == jsonmin.StatusFailed:
			fmt.Fprintf(p.w, "  %s  %9s  %s\n", name, "", p.render(errorStyle, "failed"))
		default:
			fmt.Fprintf(p.w, "  %s  %9s  %s\n", name, "", p.render(mutedStyle, o.Status.String()))
		}
	}

	s := r.Stats
	fmt.Fprintf(p.w, "\n%s %d minimized (%d cached, %d formatted), %d failed in %s\n",
		p.render(titleStyle, "Assets:"),
		s.Published, s.Hits, s.Formatted, s.Failed,
		r.Duration.Round(time.Millisecond))
	if s.StoreFailures > 0 || s.LookupFailures > 0 {
		fmt.Fprintf(p.w, "%s %d lookups and %d stores failed\n",
			p.render(mutedStyle, "Cache:"), s.LookupFailures, s.StoreFailures)
	}

	for _, err := range r.Errors {
		fmt.Fprintln(p.w, p.render(errorStyle, err.Error()))
	}
}

// CacheStats prints the totals of a durable cache.
func (p *printer) CacheStats(root string, s jsonmin.Stats) {
	fmt.Fprintf(p.w, "%s %s\n", p.render(titleStyle, "Cache:"), root)
	fmt.Fprintf(p.w, "  entries: %d\n", s.Entries)
	fmt.Fprintf(p.w, "  size:    %s\n", humanize.Bytes(uint64(s.TotalSize)))
	if s.Entries > 0 {
		fmt.Fprintf(p.w, "  oldest:  %s\n", s.OldestEntry.Round(time.Second))
		fmt.Fprintf(p.w, "  newest:  %s\n", s.NewestEntry.Round(time.Second))
	}
}

// CacheEntries prints one line per cache entry.
func (p *printer) CacheEntries(entries []jsonmin.Entry) {
	for _, e := range entries {
		fmt.Fprintf(p.w, "  %s  %9s  %s  %s\n",
			p.render(mutedStyle, e.KeyHash[:min(12, len(e.KeyHash))]),
			humanize.Bytes(uint64(e.Size)),
			e.Asset,
			p.render(mutedStyle, "used "+humanize.Time(e.AccessedAt)))
	}
}
