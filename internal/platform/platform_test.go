package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/addy0032/hate-speech-detection/internal/driver/snapshot"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		in       string
		profile  string
		category Category
		url      string
	}{
		{"https://www.linkedin.com/company/acme/", "linkedin", Feed, "https://www.linkedin.com/company/acme/posts/?feedView=all"},
		{"https://www.linkedin.com/school/stanford", "linkedin", Feed, "https://www.linkedin.com/school/stanford/posts/?feedView=all"},
		{"https://www.linkedin.com/company/acme/posts/", "linkedin", Feed, "https://www.linkedin.com/company/acme/posts/?feedView=all"},
		{"https://www.linkedin.com/company/acme/posts/?x=1", "linkedin", Feed, "https://www.linkedin.com/company/acme/posts/?x=1&feedView=all"},
		{"https://www.linkedin.com/company/acme/posts/?feedView=images", "linkedin", Feed, "https://www.linkedin.com/company/acme/posts/?feedView=images"},
		{"https://www.linkedin.com/company/acme?trk=public_profile", "linkedin", Feed, "https://www.linkedin.com/company/acme/posts/?feedView=all"},
		{"https://www.linkedin.com/company/acme/posts/#top", "linkedin", Feed, "https://www.linkedin.com/company/acme/posts/?feedView=all"},
		{"https://www.linkedin.com/in/jane-doe/", "linkedin", Feed, "https://www.linkedin.com/in/jane-doe/recent-activity/all/"},
		{"https://www.linkedin.com/in/jane-doe?utm_source=share", "linkedin", Feed, "https://www.linkedin.com/in/jane-doe/recent-activity/all/"},
		{"https://www.linkedin.com/in/jane-doe/recent-activity?trk=x", "linkedin", Feed, "https://www.linkedin.com/in/jane-doe/recent-activity/all/"},
		{"https://www.linkedin.com/in/jane-doe/recent-activity/", "linkedin", Feed, "https://www.linkedin.com/in/jane-doe/recent-activity/all/"},
		{"https://www.linkedin.com/in/jane-doe/recent-activity/comments/", "linkedin", Feed, "https://www.linkedin.com/in/jane-doe/recent-activity/comments/"},
		{"https://www.linkedin.com/feed/update/urn:li:activity:123/", "linkedin", Item, "https://www.linkedin.com/feed/update/urn:li:activity:123/"},
		{"https://www.youtube.com/@veritasium", "youtube", Feed, "https://www.youtube.com/@veritasium/videos"},
		{"https://www.youtube.com/channel/UC123/featured", "youtube", Feed, "https://www.youtube.com/channel/UC123/videos"},
		{"https://www.youtube.com/@veritasium/videos/", "youtube", Feed, "https://www.youtube.com/@veritasium/videos"},
		{"@veritasium", "youtube", Feed, "https://www.youtube.com/@veritasium/videos"},
		{"https://www.youtube.com/watch?v=abcdefgh", "youtube", Item, "https://www.youtube.com/watch?v=abcdefgh"},
		{"https://www.instagram.com/natgeo/", "instagram", Feed, "https://www.instagram.com/natgeo/"},
		{"https://www.instagram.com/p/Cxyz/", "instagram", Item, "https://www.instagram.com/p/Cxyz/"},
		{"https://example.com/some/post", "linkedin", Item, "https://example.com/some/post"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m := Resolve(tt.in)
			require.Equal(t, tt.profile, m.Profile.Name)
			require.Equal(t, tt.category, m.Category)
			require.Equal(t, tt.url, m.URL)
		})
	}
}

func TestYouTubeChannel(t *testing.T) {
	require.Equal(t, "https://www.youtube.com/@x", YouTubeChannel("@x"))
	require.Equal(t, "https://www.youtube.com/user/legacy", YouTubeChannel("legacy"))
	require.Equal(t, "https://www.youtube.com/c/x", YouTubeChannel("https://www.youtube.com/c/x"))
}

func TestLocate(t *testing.T) {
	ctx := context.Background()
	s := snapshot.New(map[string]string{"feed": `<html><body>
<div class="feed-shared-update-v2" id="a">
  <a href="/feed/update/urn:li:activity:111/?trk=x">post</a>
  <span class="update-components-actor__sub-description"><span aria-hidden="true">2d • Edited</span></span>
</div>
<div class="feed-shared-update-v2" data-urn="urn:li:activity:222" id="b"></div>
<div class="feed-shared-update-v2" id="c"><a href="/company/acme">no post link</a></div>
</body></html>`})
	require.NoError(t, s.Navigate(ctx, "feed"))

	items, err := s.Find(ctx, LinkedIn.FeedItem)
	require.NoError(t, err)
	require.Len(t, items, 3)

	id, u, ok := LinkedIn.Locate(ctx, items[0])
	require.True(t, ok)
	require.Equal(t, "111", id)
	require.Equal(t, "https://www.linkedin.com/feed/update/urn:li:activity:111/", u)
	require.Equal(t, []string{"2d • Edited"}, LinkedIn.TimeTexts(ctx, items[0]))

	id, _, ok = LinkedIn.Locate(ctx, items[1])
	require.True(t, ok)
	require.Equal(t, "222", id)
	require.Empty(t, LinkedIn.TimeTexts(ctx, items[1]))

	_, _, ok = LinkedIn.Locate(ctx, items[2])
	require.False(t, ok)
}
