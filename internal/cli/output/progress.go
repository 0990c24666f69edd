package output

import (
	"fmt"
	"io"
	"time"

	"github.com/marmos91/safefs/internal/bytesize"
	"github.com/marmos91/safefs/internal/cli/timeutil"
)

// Progress renders a single self-overwriting line tracking a copy. When
// the writer is not a terminal only the final summary is written.
type Progress struct {
	w           io.Writer
	label       string
	total       int64
	done        int64
	interactive bool
	started     time.Time
	lastDraw    time.Time
	minInterval time.Duration
}

// NewProgress creates a Progress for total bytes. A total <= 0 means
// unknown and hides the percentage.
func NewProgress(w io.Writer, label string, total int64, interactive bool) *Progress {
	now := time.Now()
	return &Progress{
		w:           w,
		label:       label,
		total:       total,
		interactive: interactive,
		started:     now,
		minInterval: 100 * time.Millisecond,
	}
}

// Update records that done bytes have been written so far.
func (p *Progress) Update(done int64) {
	p.done = done
	if !p.interactive {
		return
	}
	now := time.Now()
	if now.Sub(p.lastDraw) < p.minInterval && done != p.total {
		return
	}
	p.lastDraw = now
	_, _ = fmt.Fprintf(p.w, "\r\033[K%s", p.line())
}

// Done finishes the line with a summary.
func (p *Progress) Done(err error) {
	if p.interactive {
		_, _ = fmt.Fprint(p.w, "\r\033[K")
	}
	elapsed := timeutil.FormatDuration(time.Since(p.started))
	if err != nil {
		_, _ = fmt.Fprintf(p.w, "%s: failed after %s: %v\n", p.label, bytesize.ByteSize(p.done).HumanString(), err)
		return
	}
	_, _ = fmt.Fprintf(p.w, "%s: %s in %s\n", p.label, bytesize.ByteSize(p.done).HumanString(), elapsed)
}

func (p *Progress) line() string {
	done := bytesize.ByteSize(p.done).HumanString()
	if p.total <= 0 {
		return fmt.Sprintf("%s  %s", p.label, done)
	}
	pct := float64(p.done) * 100 / float64(p.total)
	return fmt.Sprintf("%s  %s / %s  %3.0f%%", p.label, done, bytesize.ByteSize(p.total).HumanString(), pct)
}
