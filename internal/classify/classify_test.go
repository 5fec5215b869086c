package classify

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/addy0032/hate-speech-detection/internal/config"
	"github.com/addy0032/hate-speech-detection/internal/logging"
	"github.com/addy0032/hate-speech-detection/internal/types"
)

type scripted struct {
	answers map[string]string
	calls   atomic.Int32
}

func (s *scripted) Classify(_ context.Context, text string) (string, error) {
	s.calls.Add(1)
	ans, ok := s.answers[text]
	if !ok {
		return "", errors.New("rate limited")
	}
	return ans, nil
}

func TestDisabledAdapterLabelsUnknown(t *testing.T) {
	a := New(nil, 2, logging.Discard())
	require.False(t, a.Enabled())

	comments := []types.RawComment{{Text: "you are awful"}, {Text: ""}}
	require.NoError(t, a.LabelAll(context.Background(), comments))
	require.Equal(t, types.LabelUnknown, comments[0].Label)
	require.Equal(t, types.LabelSafe, comments[1].Label)
}


func TestClassify(t *testing.T) {
	p := &scripted{answers: map[string]string{
		"a": "hate",
		"b": " 'Sarcasm'.\n",
		"c": "**safe**",
		"d": "toxic",
	}}
	a := New(p, 1, logging.Discard())
	ctx := context.Background()

	tests := []struct {
		text string
		want types.Label
	}{
		{"a", types.LabelHate},
		{"b", types.LabelSarcasm},
		{"c", types.LabelSafe},
		{"d", types.LabelUnknown},
		{"missing", types.LabelError},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			require.Equal(t, tt.want, a.Classify(ctx, tt.text))
		})
	}
}

func TestEmptyTextSkipsProvider(t *testing.T) {
	p := &scripted{answers: map[string]string{"  \n": "hate"}}
	a := New(p, 1, logging.Discard())
	ctx := context.Background()

	require.Equal(t, types.LabelSafe, a.Classify(ctx, ""))
	require.Zero(t, p.calls.Load())

	// Whitespace is still text
	require.Equal(t, types.LabelHate, a.Classify(ctx, "  \n"))
	require.Equal(t, int32(1), p.calls.Load())
}

func TestLabelAllKeepsOrder(t *testing.T) {
	answers := map[string]string{}
	var comments []types.RawComment
	for i := range 20 {
		text := strings.Repeat("x", i+1)
		label := "safe"
		if i%3 == 0 {
			label = "hate"
		}
		answers[text] = label
		comments = append(comments, types.RawComment{Text: text})
	}
	a := New(&scripted{answers: answers}, 4, logging.Discard())

	require.NoError(t, a.LabelAll(context.Background(), comments))
	for i, c := range comments {
		require.Equal(t, types.Label(answers[c.Text]), c.Label, "comment %d", i)
	}
}

func TestLabelAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := New(&scripted{answers: map[string]string{"a": "safe"}}, 1, logging.Discard())
	err := a.LabelAll(ctx, []types.RawComment{{Text: "a"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestFromConfig(t *testing.T) {
	a, err := FromConfig(config.ClassifierConfig{Provider: config.ProviderGroq}, "", logging.Discard())
	require.NoError(t, err)
	require.False(t, a.Enabled())

	a, err = FromConfig(config.ClassifierConfig{Provider: config.ProviderGroq, APIKey: "k"}, t.TempDir(), logging.Discard())
	require.NoError(t, err)
	require.True(t, a.Enabled())

	a, err = FromConfig(config.ClassifierConfig{Provider: config.ProviderNone, APIKey: "k"}, "", logging.Discard())
	require.NoError(t, err)
	require.False(t, a.Enabled())

	_, err = FromConfig(config.ClassifierConfig{Provider: "openai"}, "", logging.Discard())
	require.Error(t, err)
}
