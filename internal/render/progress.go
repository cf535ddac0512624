package render

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ProgressReporter renders an in-place terminal progress bar tracking
// completed scanlines. It refreshes at a fixed interval and supports
// concurrent Increment calls from worker goroutines.
type ProgressReporter struct {
	total     int64
	processed atomic.Int64
	label     string
	barWidth  int
	start     time.Time
	done      chan struct{}
	mu        sync.Mutex
}

// NewProgressReporter starts a reporter for total scanlines.
func NewProgressReporter(label string, total int64) *ProgressReporter {
	pr := &ProgressReporter{
		total:    total,
		label:    label,
		barWidth: 30,
		start:    time.Now(),
		done:     make(chan struct{}),
	}
	go pr.run()
	return pr
}

// Increment marks one more scanline as rendered. Safe for concurrent use.
func (pr *ProgressReporter) Increment() {
	pr.processed.Add(1)
}

// Finish stops the refresh loop and prints the final bar state.
func (pr *ProgressReporter) Finish() {
	close(pr.done)
	pr.draw()
	fmt.Fprint(os.Stderr, "\n")
}

func (pr *ProgressReporter) run() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-pr.done:
			return
		case <-ticker.C:
			pr.draw()
		}
	}
}

func (pr *ProgressReporter) draw() {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	processed := pr.processed.Load()
	total := pr.total

	var frac float64
	if total > 0 {
		frac = float64(processed) / float64(total)
	}
	if frac > 1 {
		frac = 1
	}

	filled := int(float64(pr.barWidth) * frac)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", pr.barWidth-filled)

	elapsed := time.Since(pr.start)
	rate := float64(0)
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(processed) / secs
	}

	fmt.Fprintf(os.Stderr, "\r%s [%s] %3.0f%%  %d/%d rows  %.0f/s  %s\033[K",
		pr.label, bar, frac*100, processed, total, rate, formatDuration(elapsed))
}

func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) - m*60
	return fmt.Sprintf("%dm%02ds", m, s)
}
