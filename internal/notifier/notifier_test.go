package notifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/addy0032/hate-speech-detection/internal/config"
	"github.com/addy0032/hate-speech-detection/internal/logging"
	"github.com/addy0032/hate-speech-detection/internal/report"
	"github.com/addy0032/hate-speech-detection/internal/task"
	"github.com/addy0032/hate-speech-detection/internal/types"
)

type outbox struct {
	to, subject, html, plain string
	err                      error
}

func (o *outbox) Send(to, subject, htmlBody, plainBody string) error {
	o.to, o.subject, o.html, o.plain = to, subject, htmlBody, plainBody
	return o.err
}

func builder(t *testing.T) *report.Builder {
	t.Helper()
	b, err := report.New(0)
	require.NoError(t, err)
	return b
}

func TestSendReport(t *testing.T) {
	box := &outbox{}
	n := New(box, "mod@example.com", builder(t), logging.Discard())

	snap := task.Snapshot{ID: "t1", Status: task.StatusCompleted, Results: []types.ItemResult{
		{ItemURL: "u", Comments: []types.RawComment{{Text: "bad", Label: types.LabelHate}}},
	}}
	require.NoError(t, n.SendReport(snap))
	require.Equal(t, "mod@example.com", box.to)
	require.Equal(t, "Scrape completed: 1 comments, 1 flagged", box.subject)
	require.Contains(t, box.plain, "[hate]")
	require.Contains(t, box.html, "<html>")

	box.err = errors.New("relay denied")
	n.OnFinish(snap)
}

func TestNewFromConfig(t *testing.T) {
	n, err := NewFromConfig(config.EmailConfig{}, builder(t), logging.Discard())
	require.NoError(t, err)
	require.Nil(t, n)

	_, err = NewFromConfig(config.EmailConfig{Enabled: true, SMTPHost: "smtp.example.com"}, builder(t), logging.Discard())
	require.Error(t, err)

	n, err = NewFromConfig(config.EmailConfig{
		Enabled: true, SMTPHost: "smtp.example.com", SMTPPort: 587,
		FromAddr: "hsd@example.com", ToAddr: "mod@example.com",
	}, builder(t), logging.Discard())
	require.NoError(t, err)
	require.NotNil(t, n)
}

func TestSMTPMessage(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "", "", "hsd@example.com")
	raw, err := s.message("mod@example.com", "Report", "<p>hi</p>", "hi").Bytes()
	require.NoError(t, err)
	require.Contains(t, string(raw), "Subject: Report")
	require.Contains(t, string(raw), "text/html")
	require.Contains(t, string(raw), "text/plain")
}
