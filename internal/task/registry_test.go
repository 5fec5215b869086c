package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/addy0032/hate-speech-detection/internal/types"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusPending, false},
		{StatusCompleted, StatusFailed, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusFailed, StatusCompleted, false},
		{StatusFailed, StatusPending, false},
		{Status("paused"), StatusProcessing, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	r := NewRegistry(0, 0)
	r.create("a", []string{"src"}, 30, nil)
	r.progress("a", "one")
	r.addResult("a", types.ItemResult{ItemURL: "p", CommentCount: 1, Comments: []types.RawComment{{Text: "x"}}})

	snap, ok := r.Get("a")
	require.True(t, ok)
	snap.Progress[0] = "changed"
	snap.Results[0].Comments[0].Text = "changed"
	snap.Sources[0] = "changed"

	again, _ := r.Get("a")
	require.Equal(t, []string{"one"}, again.Progress)
	require.Equal(t, "x", again.Results[0].Comments[0].Text)
	require.Equal(t, []string{"src"}, again.Sources)
}

func TestFinishedTasksAreEvicted(t *testing.T) {
	r := NewRegistry(1, 0)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	r.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for _, id := range []string{"a", "b", "c"} {
		r.create(id, nil, 30, nil)
	}
	require.NoError(t, r.transition("a", StatusProcessing, "", ""))
	require.NoError(t, r.transition("a", StatusCompleted, "done", ""))
	require.NoError(t, r.transition("b", StatusFailed, "", "boom"))

	_, ok := r.Get("a")
	require.False(t, ok, "a should be evicted by b")

	b, ok := r.Get("b")
	require.True(t, ok)
	require.Equal(t, "boom", b.Error)
	require.False(t, b.FinishedAt.IsZero())

	list := r.List()
	require.Len(t, list, 2)
	require.Equal(t, "b", list[0].ID)
	require.Equal(t, "c", list[1].ID)

	done, ok := r.doneChan("b")
	require.True(t, ok)
	select {
	case <-done:
	default:
		t.Fatal("done channel not closed for finished task")
	}
}

func TestUpdatesIgnoreFinishedTasks(t *testing.T) {
	r := NewRegistry(0, 0)
	r.create("a", nil, 30, nil)
	require.NoError(t, r.transition("a", StatusFailed, "Error: x", "x"))

	r.progress("a", "late")
	snap, _ := r.Get("a")
	require.Equal(t, []string{"Error: x"}, snap.Progress)
	require.ErrorIs(t, r.transition("a", StatusProcessing, "", ""), ErrInvalidTransition)
	require.ErrorIs(t, r.transition("zzz", StatusProcessing, "", ""), ErrNotFound)
}
