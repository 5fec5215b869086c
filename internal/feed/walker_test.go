package feed

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/addy0032/hate-speech-detection/internal/driver/snapshot"
	"github.com/addy0032/hate-speech-detection/internal/logging"
	"github.com/addy0032/hate-speech-detection/internal/types"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const feedURL = "https://www.linkedin.com/company/acme/posts/?feedView=all"

func post(id, age string, lazy int) string {
	attr := ""
	if lazy > 0 {
		attr = fmt.Sprintf(` data-lazy="%d"`, lazy)
	}
	return fmt.Sprintf(`<div class="feed-shared-update-v2"%s>
  <a href="https://www.linkedin.com/feed/update/urn:li:activity:%s/">open</a>
  <span class="update-components-actor__sub-description"><span aria-hidden="true">%s • </span></span>
</div>`, attr, id, age)
}

func feedPage(posts ...string) string {
	return "<html><body><main>" + strings.Join(posts, "\n") + "</main></body></html>"
}

func newWalker(s *snapshot.Session) *Walker {
	return NewWalker(s, Options{ScrollSteps: 1, Now: func() time.Time { return fixedNow }}, logging.Discard())
}

func collect(t *testing.T, w *Walker, source string, days int) ([]types.ItemLocator, error) {
	t.Helper()
	var out []types.ItemLocator
	for loc, err := range w.Discover(context.Background(), source, days) {
		if err != nil {
			return out, err
		}
		out = append(out, loc)
	}
	return out, nil
}

func ids(locs []types.ItemLocator) []string {
	var out []string
	for _, l := range locs {
		out = append(out, l.ID)
	}
	return out
}

func TestWithinWindow(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"30d", true},
		{"31d", false},
		{"4w • Edited", true},
		{"5w", false},
		{"1mo", true},
		{"2mo", false},
		{"1yr", false},
		{"1 hr", true},
		{"45m", true},
		{"3 days ago", true},
		{"Streamed 2 months ago", false},
		{"", true},
		{"Edited", true},
		{"yesterday", true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			require.Equal(t, tt.want, WithinWindow(tt.text, 30, fixedNow))
		})
	}
}

func TestParseAgePrefersLongestUnit(t *testing.T) {
	age, ok := ParseAge("3mo")
	require.True(t, ok)
	require.Equal(t, 90*day, age)

	age, ok = ParseAge("2hr")
	require.True(t, ok)
	require.Equal(t, 2*time.Hour, age)

	_, ok = ParseAge("1.2K views")
	require.False(t, ok)
}

func TestDiscoverStopsOnOldStreak(t *testing.T) {
	posts := []string{
		post("1", "1d", 0),
		post("2", "3d", 0),
		post("1", "1d", 1), // duplicate id
		post("3", "2w", 1),
	}
	for i := 0; i < 6; i++ {
		posts = append(posts, post(fmt.Sprintf("old%d", i), "3mo", 2))
	}
	posts = append(posts, post("after", "1d", 3))

	s := snapshot.New(map[string]string{feedURL: feedPage(posts...)})
	locs, err := collect(t, newWalker(s), "https://www.linkedin.com/company/acme/", 30)

	require.NoError(t, err)
	require.Equal(t, []string{"1", "2", "3"}, ids(locs))
	require.Equal(t, "https://www.linkedin.com/feed/update/urn:li:activity:1/", locs[0].URL)
	require.True(t, locs[0].WithinWindow)
	require.Equal(t, fixedNow, locs[0].DiscoveredAt)
	require.Equal(t, []string{feedURL}, s.Visited())
}

func TestDiscoverStopsWhenPageStopsGrowing(t *testing.T) {
	s := snapshot.New(map[string]string{feedURL: feedPage(
		post("1", "1d", 0),
		post("2", "10mo", 0),
		post("3", "5h", 1),
	)})
	locs, err := collect(t, newWalker(s), feedURL, 30)

	require.NoError(t, err)
	require.Equal(t, []string{"1", "3"}, ids(locs))
}

func TestDiscoverYouTubeUsesShorterStreak(t *testing.T) {
	video := func(id, age string, lazy int) string {
		return fmt.Sprintf(`<ytd-rich-item-renderer data-lazy="%d">
  <a id="video-title-link" href="/watch?v=%s">title</a>
  <div id="metadata-line"><span>1.2K views</span><span>%s</span></div>
</ytd-rich-item-renderer>`, lazy, id, age)
	}
	url := "https://www.youtube.com/@chan/videos"
	s := snapshot.New(map[string]string{url: "<html><body><ytd-rich-grid-renderer>" +
		video("new00001", "2 days ago", 0) +
		video("old00001", "2 months ago", 0) +
		video("old00002", "3 months ago", 0) +
		video("old00003", "1 year ago", 0) +
		video("new00002", "1 day ago", 1) +
		"</ytd-rich-grid-renderer></body></html>"})

	locs, err := collect(t, newWalker(s), "@chan", 30)
	require.NoError(t, err)
	require.Equal(t, []string{"new00001"}, ids(locs))
	require.Equal(t, "https://www.youtube.com/watch?v=new00001", locs[0].URL)
	require.Equal(t, "2 days ago", locs[0].TimeText)
}

func TestDiscoverNavigationFailure(t *testing.T) {
	s := snapshot.New(map[string]string{})
	locs, err := collect(t, newWalker(s), feedURL, 30)
	require.Error(t, err)
	require.Empty(t, locs)
}

func TestDiscoverRejectsItems(t *testing.T) {
	s := snapshot.New(map[string]string{})
	_, err := collect(t, newWalker(s), "https://www.linkedin.com/feed/update/urn:li:activity:1/", 30)
	require.ErrorIs(t, err, ErrNotFeed)
}

func TestDiscoverCanStopEarly(t *testing.T) {
	s := snapshot.New(map[string]string{feedURL: feedPage(post("1", "1d", 0), post("2", "1d", 0))})
	w := newWalker(s)

	var got []string
	for loc, err := range w.Discover(context.Background(), feedURL, 30) {
		require.NoError(t, err)
		got = append(got, loc.ID)
		break
	}
	require.Equal(t, []string{"1"}, got)
}

func TestDiscoverCancelled(t *testing.T) {
	s := snapshot.New(map[string]string{feedURL: feedPage(post("1", "1d", 0))})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var lastErr error
	for _, err := range newWalker(s).Discover(ctx, feedURL, 30) {
		lastErr = err
	}
	require.ErrorIs(t, lastErr, context.Canceled)
}
