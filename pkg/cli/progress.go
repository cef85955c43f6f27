package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"mercator-hq/vesta/pkg/syncer"
)

// ProgressReporter reports progress for long-running operations.
type ProgressReporter interface {
	Start(total int)
	Update(completed int, current string)
	Finish()
	Error(err error)
}

// SimpleProgress implements a simple text-based progress reporter.
type SimpleProgress struct {
	mu        sync.Mutex
	total     int
	completed int
	current   string
	writer    io.Writer
}

// NewProgressReporter creates a new progress reporter that writes to w.
// If w is nil, it defaults to os.Stderr.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{
		writer: w,
	}
}

// Start initializes the progress reporter with the total number of items.
func (p *SimpleProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.completed = 0
	p.current = ""

	p.render()
}

// Update records the number of finished items and the item in flight.
func (p *SimpleProgress) Update(completed int, current string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed = completed
	p.current = current
	p.render()
}

// Finish marks the progress as complete.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed = p.total
	p.current = ""
	p.render()
	fmt.Fprintln(p.writer)
}

// Error reports an error during progress.
func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\n✗ Error: %v\n", err)
}

func (p *SimpleProgress) render() {
	if p.total == 0 {
		return
	}

	percent := float64(p.completed) / float64(p.total) * 100
	barWidth := 30
	filled := int(float64(barWidth) * percent / 100)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	line := fmt.Sprintf("\rSyncing: [%s] %d/%d", bar, p.completed, p.total)
	if p.current != "" {
		line += " " + p.current
	}
	fmt.Fprintf(p.writer, "%-80s", line)
}

// SyncProgress adapts a reporter to the orchestrator's progress callback.
// The first callback starts the reporter.
func SyncProgress(r ProgressReporter) syncer.ProgressFunc {
	started := false
	return func(p syncer.Progress) {
		if !started {
			r.Start(p.Total)
			started = true
		}
		r.Update(p.Completed, p.Current)
	}
}
