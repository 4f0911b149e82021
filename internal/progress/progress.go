package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Bar renders batch progress on a terminal. Safe for concurrent Set calls,
// which batch workers make from multiple goroutines.
type Bar struct {
	mu      sync.Mutex
	out     io.Writer
	label   string
	total   int
	current int
	started time.Time
	last    time.Time
	enabled bool
}

// New builds a progress bar writing to out. A disabled bar swallows every
// call, so callers never branch on quiet mode.
func New(out io.Writer, label string, total int, enabled bool) *Bar {
	return &Bar{
		out:     out,
		label:   label,
		total:   total,
		started: time.Now(),
		enabled: enabled && out != nil,
	}
}

// Set records completion of `current` of the total and redraws. Redraws
// are throttled to avoid flicker on fast batches.
func (b *Bar) Set(current int) {
	if !b.enabled {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if current < b.current {
		return
	}
	b.current = current

	now := time.Now()
	if now.Sub(b.last) < 100*time.Millisecond && current < b.total {
		return
	}
	b.last = now

	pct := 0.0
	if b.total > 0 {
		pct = float64(current) / float64(b.total) * 100
	}
	eta := ""
	if elapsed := now.Sub(b.started); current > 0 && current < b.total {
		rate := float64(current) / elapsed.Seconds()
		remaining := time.Duration(float64(b.total-current)/rate) * time.Second
		eta = " eta " + shortDuration(remaining)
	}
	fmt.Fprintf(b.out, "\r%s [%s] %d/%d (%.0f%%)%s", b.label, b.bar(pct), current, b.total, pct, eta)
}

// Done finishes the line with the elapsed time.
func (b *Bar) Done() {
	if !b.enabled {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, "\r%s done: %d items in %s\n", b.label, b.current, shortDuration(time.Since(b.started)))
}

func (b *Bar) bar(pct float64) string {
	const width = 24
	filled := int(pct / 100 * width)
	if filled > width {
		filled = width
	}
	return strings.Repeat("=", filled) + strings.Repeat(".", width-filled)
}

func shortDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
