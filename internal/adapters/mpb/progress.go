// Package mpb implements ports.ProgressFactory with terminal progress bars
// from github.com/vbauerster/mpb.
package mpb

import (
	"io"

	"github.com/gkoulin/owen-hash-experiments/internal/ports"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Factory renders one bar per task on Out.
type Factory struct {
	Out   io.Writer
	Width int // bar width in columns; 0 means 60
}

var _ ports.ProgressFactory = (*Factory)(nil)

// NewFactory returns a Factory writing to out.
func NewFactory(out io.Writer) *Factory {
	return &Factory{Out: out}
}

// Start draws a bar for total units of work. The returned done function
// waits for the bar to render its final state; a bar that never reached
// total is aborted and left on screen. Out need not be a terminal: refresh
// is forced so the final state is always written.
func (f *Factory) Start(label string, total int) (ports.Progress, func()) {
	width := f.Width
	if width == 0 {
		width = 60
	}
	p := mpb.New(mpb.WithOutput(f.Out), mpb.WithWidth(width), mpb.WithAutoRefresh())
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(label+" "),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "done"),
		),
	)
	done := func() {
		if !bar.Completed() {
			bar.Abort(false)
		}
		p.Wait()
	}
	return &barProgress{bar: bar}, done
}

// barProgress adapts *mpb.Bar to ports.Progress. IncrBy is safe for
// concurrent use.
type barProgress struct {
	bar *mpb.Bar
}

func (b *barProgress) Add(n int) {
	b.bar.IncrBy(n)
}
