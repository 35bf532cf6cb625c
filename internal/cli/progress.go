package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/jmylchreest/kpalette/internal/colour"
)

// progressLine redraws a single status line on a terminal as the pipeline advances.
type progressLine struct {
	mu      sync.Mutex
	w       io.Writer
	label   string
	lastPct int
	stage   colour.Stage
}

func newProgressLine(w io.Writer, label string) *progressLine {
	return &progressLine{w: w, label: label, lastPct: -1}
}

func (p *progressLine) update(ev colour.Progress) {
	if ev.Total <= 0 {
		return
	}
	pct := ev.Done * 100 / ev.Total

	p.mu.Lock()
	defer p.mu.Unlock()

	if ev.Stage == p.stage && pct == p.lastPct {
		return
	}
	p.stage, p.lastPct = ev.Stage, pct
	fmt.Fprintf(p.w, "\r\033[K%s: %-9s %3d%%", p.label, ev.Stage, pct)
}

// done clears the status line.
func (p *progressLine) done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastPct >= 0 {
		fmt.Fprint(p.w, "\r\033[K")
	}
}
