package app

import "time"

// Operation identifies one CLI invocation. Its ID tags every log line written
// while the command runs.
type Operation struct {
	ID        string
	Name      string
	StartedAt time.Time
}

// NewOperation creates an operation named after the CLI command (e.g. "Serve",
// "ImportExams") that started at now.
func NewOperation(name string, now time.Time) *Operation {
	now = now.UTC()
	return &Operation{
		ID:        now.Format("20060102T150405Z"),
		Name:      name,
		StartedAt: now,
	}
}

// Elapsed returns the time since the operation started.
func (op *Operation) Elapsed(now time.Time) time.Duration {
	return now.Sub(op.StartedAt)
}
