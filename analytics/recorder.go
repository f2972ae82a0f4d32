package analytics

// Recorder receives delivery metrics. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Queued(eventType string)
	RateLimited(eventType string)
	Evicted(n int)
	Flushed(n int)
	Retried(n int)
	Dropped(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) Queued(string)      {}
func (NoopRecorder) RateLimited(string) {}
func (NoopRecorder) Evicted(int)        {}
func (NoopRecorder) Flushed(int)        {}
func (NoopRecorder) Retried(int)        {}
func (NoopRecorder) Dropped(int)        {}
