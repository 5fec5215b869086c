package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/addy0032/hate-speech-detection/internal/task"
	"github.com/addy0032/hate-speech-detection/internal/types"
)

func sample() task.Snapshot {
	return task.Snapshot{
		ID:      "t1",
		Status:  task.StatusCompleted,
		Sources: []string{"https://www.linkedin.com/company/acme/"},
		Results: []types.ItemResult{
			{
				ItemURL:      "https://www.linkedin.com/feed/update/urn:li:activity:1/",
				CommentCount: 3,
				Comments: []types.RawComment{
					{Text: "nice", AuthorName: "Ann", Label: types.LabelSafe},
					{Text: "<script>alert(1)</script>", AuthorName: "Bo", AuthorProfileURL: "https://www.linkedin.com/in/bo", Label: types.LabelHate},
					{Text: "sure, great idea", AuthorName: "Cy", Label: types.LabelSarcasm},
				},
			},
			{ItemURL: "https://www.linkedin.com/feed/update/urn:li:activity:2/", Comments: []types.RawComment{}},
		},
	}
}

func TestBuild(t *testing.T) {
	b, err := New(0)
	require.NoError(t, err)
	b.now = func() time.Time { return time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC) }

	r, err := b.Build(sample())
	require.NoError(t, err)
	require.Equal(t, "t1", r.TaskID)
	require.Equal(t, "Scrape completed: 3 comments, 2 flagged", r.Subject)

	require.Contains(t, r.HTMLBody, "&lt;script&gt;")
	require.NotContains(t, r.HTMLBody, "<script>alert")
	require.Contains(t, r.HTMLBody, `href="https://www.linkedin.com/in/bo"`)

	require.Contains(t, r.PlainBody, "2 items, 3 comments (hate 1, sarcasm 1, safe 1, unknown 0, error 0)")
	require.Contains(t, r.PlainBody, "[hate] Bo: <script>alert(1)</script>")
	require.NotContains(t, r.PlainBody, "nice")

	// Flagged first
	require.Less(t, strings.Index(r.HTMLBody, "sure, great idea"), strings.Index(r.HTMLBody, "nice"))
}

func TestBuildCapsComments(t *testing.T) {
	b, err := New(1)
	require.NoError(t, err)

	r, err := b.Build(sample())
	require.NoError(t, err)
	require.Contains(t, r.HTMLBody, "2 more comments not shown")
	require.NotContains(t, r.HTMLBody, "nice")
}

func TestBuildFailedTask(t *testing.T) {
	b, err := New(0)
	require.NoError(t, err)

	snap := sample()
	snap.Status = task.StatusFailed
	snap.Error = "task cancelled"
	r, err := b.Build(snap)
	require.NoError(t, err)
	require.Contains(t, r.PlainBody, "Error: task cancelled")
	require.True(t, strings.HasPrefix(r.Subject, "Scrape failed"))
}
