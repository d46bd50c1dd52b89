// Package state persists analysis runs and their results in SQLite so
// reports and rankings can be re-rendered without re-analyzing the
// corpus.
package state

import "time"

// RunStatus tracks the lifecycle of an analysis run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	// RunStatusPartial marks a cancelled run whose completed file
	// results are still valid and included.
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
)

// Run is one recorded analysis run.
type Run struct {
	ID           string
	Status       RunStatus
	StartedAt    time.Time
	CompletedAt  *time.Time
	Models       []string
	Languages    []string
	FilesTotal   int
	FilesSkipped int
	Error        string
}
