package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/addy0032/hate-speech-detection/internal/logging"
	"github.com/addy0032/hate-speech-detection/internal/types"
)

func batch() []types.RawComment {
	return []types.RawComment{
		{Identity: "urn:1", SourceURL: "p1", Text: "hello", AuthorName: "A", Label: types.LabelSafe},
		{SourceURL: "p1", Text: "no id"},
		{Identity: "urn:1", SourceURL: "p2", Text: "same id, different text"},
		{SourceURL: "p1", Text: "no id"},
		{SourceURL: "p2", Text: "no id"},
		{SourceURL: "p3"},
	}
}

func openJSON(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(context.Background(), NewJSONFile(path), logging.Discard())
	require.NoError(t, err)
	return s
}

func TestAddDeduplicates(t *testing.T) {
	s := openJSON(t, filepath.Join(t.TempDir(), "comments.json"))

	require.Equal(t, 3, s.Add(batch()))
	require.Equal(t, 0, s.Add(batch()))

	records := s.Records()
	require.Len(t, records, 3)
	require.Equal(t, []int{1, 2, 3}, []int{records[0].Index, records[1].Index, records[2].Index})
	require.Equal(t, types.LabelSafe, records[0].Label)
	require.Equal(t, types.LabelUnknown, records[1].Label)
	require.Equal(t, "p2", records[2].SourceURL)
	require.False(t, records[0].ScrapedAt.IsZero())
}

func TestMergeIsIdempotentAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "comments.json")

	s := openJSON(t, path)
	added, err := s.Merge(ctx, batch())
	require.NoError(t, err)
	require.Equal(t, 3, added)

	reopened := openJSON(t, path)
	require.Equal(t, 3, reopened.Len())
	added, err = reopened.Merge(ctx, batch())
	require.NoError(t, err)
	require.Zero(t, added)

	added, err = reopened.Merge(ctx, []types.RawComment{{SourceURL: "p9", Text: "new"}})
	require.NoError(t, err)
	require.Equal(t, 1, added)
	records := reopened.Records()
	require.Equal(t, 4, records[3].Index)
}

func TestIndexContinuesFromMaximum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.json")
	legacy := `[
  {"index": 7, "urn": "", "post_url": "p", "comment": "old", "user_profile_url": "", "author_name": "X", "label": "hate", "scraped_at": "2024-05-01T10:00:00.123456+00:00"},
  {"index": 3, "urn": "urn:old", "post_url": "p", "comment": "older", "user_profile_url": "", "author_name": "Y", "label": "safe", "scraped_at": "2024-04-01T10:00:00+00:00"}
]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	s := openJSON(t, path)
	require.Equal(t, 2, s.Len())
	require.Zero(t, s.Add([]types.RawComment{{SourceURL: "p", Text: "old"}, {Identity: "urn:old"}}))
	require.Equal(t, 1, s.Add([]types.RawComment{{SourceURL: "p", Text: "fresh"}}))
	require.Equal(t, 8, s.Records()[2].Index)
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "comments.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := openJSON(t, path)
	require.Zero(t, s.Len())

	_, err := s.Merge(ctx, []types.RawComment{{SourceURL: "p", Text: "t"}})
	require.NoError(t, err)
	require.Equal(t, 1, openJSON(t, path).Len())
}

func TestGroupByItem(t *testing.T) {
	s := openJSON(t, filepath.Join(t.TempDir(), "comments.json"))
	s.Add([]types.RawComment{
		{SourceURL: "b", Text: "1"},
		{SourceURL: "a", Text: "2"},
		{SourceURL: "b", Text: "3"},
		{Identity: "urn:x", Text: "no url"},
	})

	groups := s.GroupByItem()
	require.Len(t, groups, 2)
	require.Equal(t, "b", groups[0].ItemURL)
	require.Equal(t, 2, groups[0].CommentCount)
	require.Equal(t, "3", groups[0].Comments[1].Text)
	require.Equal(t, "a", groups[1].ItemURL)
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "comments.db")

	backend, err := NewSQLite(path)
	require.NoError(t, err)
	s, err := Open(ctx, backend, logging.Discard())
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	added, err := s.Merge(ctx, batch())
	require.NoError(t, err)
	require.Equal(t, 3, added)
	require.NoError(t, s.Close())

	backend, err = NewSQLite(path)
	require.NoError(t, err)
	defer backend.Close()
	reopened, err := Open(ctx, backend, logging.Discard())
	require.NoError(t, err)

	records := reopened.Records()
	require.Len(t, records, 3)
	require.Equal(t, "urn:1", records[0].Identity)
	require.Equal(t, "hello", records[0].Text)
	require.Equal(t, types.LabelSafe, records[0].Label)
	require.True(t, records[0].ScrapedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	added, err = reopened.Merge(ctx, batch())
	require.NoError(t, err)
	require.Zero(t, added)
}

func TestStepCacheLatest(t *testing.T) {
	c := NewStepCache(t.TempDir())
	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	_, err := c.Latest(StepTasks)
	require.Error(t, err)

	_, err = c.Save(StepTasks, map[string]int{"n": 1})
	require.NoError(t, err)
	_, err = c.Save(StepTasks, map[string]int{"n": 2})
	require.NoError(t, err)

	got, _, err := LoadLatestStep[map[string]int](c, StepTasks)
	require.NoError(t, err)
	require.Equal(t, 2, got["n"])
}

func TestExchangeCache(t *testing.T) {
	c := NewExchangeCache(filepath.Join(t.TempDir(), "llm"))
	path, err := c.Save(Exchange{Timestamp: time.Now(), Provider: "groq", Prompt: "p", Response: "safe"})
	require.NoError(t, err)
	require.FileExists(t, path)
}
