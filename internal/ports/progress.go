package ports

// Progress receives best-effort completion ticks from long computations.
// Implementations must be safe for concurrent use. Nothing reads progress
// back, so a slow or dropped tick never affects results.
type Progress interface {
	// Add records n more finished units of work.
	Add(n int)
}

// ProgressFactory opens one Progress per labelled task. Done is called
// exactly once when the task finishes.
type ProgressFactory interface {
	Start(label string, total int) (p Progress, done func())
}

// NoProgress discards every tick.
type NoProgress struct{}

// Add implements Progress.
func (NoProgress) Add(int) {}

// Start implements ProgressFactory.
func (NoProgress) Start(string, int) (Progress, func()) {
	return NoProgress{}, func() {}
}
