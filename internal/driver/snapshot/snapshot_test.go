package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/addy0032/hate-speech-detection/internal/driver"
)

const page = `<html><body>
<div class="item" id="a">first</div>
<div class="item" data-lazy="1">second</div>
<div class="item" data-lazy="2">third</div>
<button id="more">Load more</button>
<div class="item" data-reveal-by="more">revealed</div>
<div class="ghost" style="display: none"><span class="inner">hidden text</span></div>
</body></html>`

func open(t *testing.T) *Session {
	t.Helper()
	s := New(map[string]string{"https://example.test/": page})
	require.NoError(t, s.Navigate(context.Background(), "https://example.test/"))
	return s
}

func TestLazyBatchesAppearOnScroll(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	items, err := s.Find(ctx, ".item")
	require.NoError(t, err)
	require.Len(t, items, 1)

	h1, err := s.PageHeight(ctx)
	require.NoError(t, err)

	require.NoError(t, s.ScrollBy(ctx, 900))
	items, err = s.Find(ctx, ".item")
	require.NoError(t, err)
	require.Len(t, items, 2)

	h2, err := s.PageHeight(ctx)
	require.NoError(t, err)
	require.Greater(t, h2, h1)

	require.NoError(t, s.ScrollBy(ctx, 900))
	require.NoError(t, s.ScrollBy(ctx, 900))
	h3, err := s.PageHeight(ctx)
	require.NoError(t, err)
	h4, err := s.PageHeight(ctx)
	require.NoError(t, err)
	require.Equal(t, h3, h4)
}

func TestClickRevealsAndDetaches(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	buttons, err := s.Find(ctx, "#more")
	require.NoError(t, err)
	require.Len(t, buttons, 1)
	btn := buttons[0]

	require.NoError(t, btn.Click(ctx))
	require.Equal(t, 1, s.Clicks())

	items, err := s.Find(ctx, ".item")
	require.NoError(t, err)
	require.Len(t, items, 2)

	_, err = btn.Text(ctx)
	require.ErrorIs(t, err, driver.ErrStale)
}

func TestHiddenTextFallsBackToTextContent(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	ghosts, err := s.Find(ctx, ".ghost")
	require.NoError(t, err)
	require.Len(t, ghosts, 1)

	visible, err := ghosts[0].Visible(ctx)
	require.NoError(t, err)
	require.False(t, visible)

	text, err := ghosts[0].Text(ctx)
	require.NoError(t, err)
	require.Empty(t, text)

	raw, err := ghosts[0].TextContent(ctx)
	require.NoError(t, err)
	require.Equal(t, "hidden text", raw)
}

func TestNavigationInvalidatesElements(t *testing.T) {
	ctx := context.Background()
	s := New(map[string]string{
		"https://example.test/":  page,
		"https://example.test/2": `<p class="item">other</p>`,
	})
	require.NoError(t, s.Navigate(ctx, "https://example.test/"))
	items, err := s.Find(ctx, ".item")
	require.NoError(t, err)

	require.NoError(t, s.Navigate(ctx, "https://example.test/2"))
	_, err = items[0].Visible(ctx)
	require.ErrorIs(t, err, driver.ErrStale)

	require.Error(t, s.Navigate(ctx, "https://example.test/missing"))
	require.Equal(t, []string{"https://example.test/", "https://example.test/2"}, s.Visited())
}

func TestWaitFor(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	require.NoError(t, s.WaitFor(ctx, "#a", time.Second))
	require.ErrorIs(t, s.WaitFor(ctx, ".absent", time.Second), driver.ErrNotFound)

	require.NoError(t, s.Close())
	_, err := s.Find(ctx, "#a")
	require.Error(t, err)
}
