package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return NoopRecorder{}
}

func (NoopRecorder) IncEntityOperation(string, string) {}
func (NoopRecorder) IncEntityNotFound(string)          {}
func (NoopRecorder) IncLogin(string)                   {}
func (NoopRecorder) IncAPIKeyIssued()                  {}
