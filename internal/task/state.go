// Package task runs scrape tasks in the background and keeps their
// observable state.
package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/addy0032/hate-speech-detection/internal/types"
)

// Status is the lifecycle state of a task
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var (
	ErrNotFound          = errors.New("task not found")
	ErrNotCompleted      = errors.New("task not completed")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrShuttingDown      = errors.New("task manager is shutting down")
	ErrEmptyStore        = errors.New("no stored comments")
)

// CancelledMessage is the error recorded for a cancelled task
const CancelledMessage = "task cancelled"

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// ValidateTransition checks if moving from one status to another is allowed.
// Completed and failed absorb every transition.
func ValidateTransition(from, to Status) error {
	allowed, ok := transitions[from]
	if !ok {
		return fmt.Errorf("%w: unknown source state %s", ErrInvalidTransition, from)
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
}

// Terminal reports whether no further transitions are possible
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Snapshot is a point-in-time copy of a task's state
type Snapshot struct {
	ID         string             `json:"task_id"`
	Status     Status             `json:"status"`
	Progress   []string           `json:"progress"`
	Error      string             `json:"error,omitempty"`
	Results    []types.ItemResult `json:"results"`
	Sources    []string           `json:"sources,omitempty"`
	WindowDays int                `json:"window_days,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	StartedAt  time.Time          `json:"started_at,omitzero"`
	FinishedAt time.Time          `json:"finished_at,omitzero"`
}

// CommentCount sums the comments over all result groups
func (s Snapshot) CommentCount() int {
	n := 0
	for _, r := range s.Results {
		n += len(r.Comments)
	}
	return n
}

// clone deep-copies the slices so callers never share memory with the registry
func (s Snapshot) clone() Snapshot {
	out := s
	out.Progress = append(make([]string, 0, len(s.Progress)), s.Progress...)
	out.Sources = append([]string(nil), s.Sources...)
	if s.Results != nil {
		out.Results = make([]types.ItemResult, len(s.Results))
		for i, r := range s.Results {
			r.Comments = append(make([]types.RawComment, 0, len(r.Comments)), r.Comments...)
			out.Results[i] = r
		}
	}
	return out
}
