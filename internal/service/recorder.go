package service

// Recorder receives counts of records touched by cascades.
type Recorder interface {
	RecordCascade(entity string, affected int64)
}

type nopRecorder struct{}

func (nopRecorder) RecordCascade(string, int64) {}
