package history

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

// WriteTable prints plays as aligned rows relative to now
func WriteTable(w io.Writer, plays []Play, now time.Time) error {
	if len(plays) == 0 {
		_, err := fmt.Fprintln(w, "No plays recorded.")
		return err
	}

	for _, play := range plays {
		_, err := fmt.Fprintf(w, "%-16s %-9s %-12s %10s frames %8s  %s\n",
			humanize.RelTime(play.StartedAt, now, "ago", "from now"),
			play.Outcome,
			orDash(play.Strategy),
			humanize.Comma(play.Frames),
			play.Duration.Round(time.Millisecond),
			displayPath(play.Path))
		if err != nil {
			return err
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// displayPath shortens a path to its base name. Argument failures may have
// no path at all.
func displayPath(path string) string {
	if path == "" {
		return "-"
	}
	return filepath.Base(path)
}
