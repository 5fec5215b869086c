// Package report renders a finished task as an HTML page or email.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
	"unicode/utf8"

	"github.com/addy0032/hate-speech-detection/internal/task"
	"github.com/addy0032/hate-speech-detection/internal/types"
)

// Builder renders task reports
type Builder struct {
	maxComments int
	template    *template.Template
	now         func() time.Time
}

// New creates a builder. maxComments caps the comments listed per item;
// 0 lists them all.
func New(maxComments int) (*Builder, error) {
	tmpl, err := template.New("report").Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &Builder{
		maxComments: maxComments,
		template:    tmpl,
		now:         time.Now,
	}, nil
}

// Report is a rendered task summary
type Report struct {
	Subject   string
	HTMLBody  string
	PlainBody string
	TaskID    string
	CreatedAt time.Time
}

// Data is the template data structure
type Data struct {
	Title    string
	Date     string
	TaskID   string
	Status   string
	Error    string
	Sources  []string
	Items    []ItemData
	Stats    StatsData
	Progress []string
}

// ItemData is one item in the report
type ItemData struct {
	URL      string
	Total    int
	Flagged  int
	Comments []CommentData
	Omitted  int
}

// CommentData is one comment in the report
type CommentData struct {
	Author     string
	ProfileURL string
	Text       string
	Label      string
}

// StatsData counts comments per label
type StatsData struct {
	Items    int
	Comments int
	Hate     int
	Sarcasm  int
	Safe     int
	Unknown  int
	Error    int
}

// Build renders snap. Flagged comments are listed before safe ones.
func (b *Builder) Build(snap task.Snapshot) (*Report, error) {
	now := b.now()
	data := Data{
		Title:    "Comment moderation report",
		Date:     now.Format("Monday, January 2 2006 15:04"),
		TaskID:   snap.ID,
		Status:   string(snap.Status),
		Error:    snap.Error,
		Sources:  snap.Sources,
		Items:    make([]ItemData, 0, len(snap.Results)),
		Progress: snap.Progress,
	}

	for _, res := range snap.Results {
		item := ItemData{URL: res.ItemURL, Total: len(res.Comments)}
		var flagged, rest []CommentData
		for _, c := range res.Comments {
			data.Stats.count(c.Label)
			cd := CommentData{
				Author:     c.AuthorName,
				ProfileURL: c.AuthorProfileURL,
				Text:       truncate(c.Text, 500),
				Label:      string(c.Label),
			}
			if c.Label == types.LabelHate || c.Label == types.LabelSarcasm {
				flagged = append(flagged, cd)
			} else {
				rest = append(rest, cd)
			}
		}
		item.Flagged = len(flagged)
		item.Comments = append(flagged, rest...)
		if b.maxComments > 0 && len(item.Comments) > b.maxComments {
			item.Omitted = len(item.Comments) - b.maxComments
			item.Comments = item.Comments[:b.maxComments]
		}
		data.Items = append(data.Items, item)
	}
	data.Stats.Items = len(snap.Results)

	var htmlBuf bytes.Buffer
	if err := b.template.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	return &Report{
		Subject:   fmt.Sprintf("Scrape %s: %d comments, %d flagged", snap.Status, data.Stats.Comments, data.Stats.Hate+data.Stats.Sarcasm),
		HTMLBody:  htmlBuf.String(),
		PlainBody: buildPlainText(data),
		TaskID:    snap.ID,
		CreatedAt: now,
	}, nil
}

func (s *StatsData) count(l types.Label) {
	s.Comments++
	switch l {
	case types.LabelHate:
		s.Hate++
	case types.LabelSarcasm:
		s.Sarcasm++
	case types.LabelSafe:
		s.Safe++
	case types.LabelError:
		s.Error++
	default:
		s.Unknown++
	}
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}

func buildPlainText(data Data) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n%s\nTask %s: %s\n", data.Title, data.Date, data.TaskID, data.Status)
	if data.Error != "" {
		fmt.Fprintf(&buf, "Error: %s\n", data.Error)
	}
	fmt.Fprintf(&buf, "%d items, %d comments (hate %d, sarcasm %d, safe %d, unknown %d, error %d)\n\n",
		data.Stats.Items, data.Stats.Comments, data.Stats.Hate, data.Stats.Sarcasm,
		data.Stats.Safe, data.Stats.Unknown, data.Stats.Error)

	for i, item := range data.Items {
		fmt.Fprintf(&buf, "%d. %s (%d comments, %d flagged)\n", i+1, item.URL, item.Total, item.Flagged)
		for _, c := range item.Comments {
			if c.Label != string(types.LabelHate) && c.Label != string(types.LabelSarcasm) {
				continue
			}
			fmt.Fprintf(&buf, "   [%s] %s: %s\n", c.Label, c.Author, c.Text)
		}
		buf.WriteString("\n")
	}

	return buf.String()
}

const defaultTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .container { background: white; border-radius: 8px; padding: 20px; }
        h1 { color: #0a66c2; margin-bottom: 5px; }
        .date, .meta { color: #666; margin-bottom: 10px; }
        .error { color: #b00020; margin-bottom: 10px; }
        .stats span { display: inline-block; margin-right: 12px; }
        .item { border-bottom: 1px solid #eee; padding: 15px 0; }
        .item:last-child { border-bottom: none; }
        .item a.url { color: #0a66c2; text-decoration: none; word-break: break-all; }
        .comment { margin: 8px 0; line-height: 1.4; }
        .author { font-weight: bold; color: #333; }
        .label { padding: 2px 8px; border-radius: 12px; font-size: 12px; margin-right: 5px; }
        .label-hate { background: #fde8e8; color: #b00020; }
        .label-sarcasm { background: #fff4e0; color: #a05a00; }
        .label-safe { background: #e8f7ee; color: #1b7a3d; }
        .label-unknown, .label-error { background: #eee; color: #555; }
        .omitted { color: #999; font-size: 13px; }
        .footer { margin-top: 20px; padding-top: 15px; border-top: 1px solid #eee; color: #999; font-size: 12px; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <div class="date">{{.Date}}</div>
        <div class="meta">Task {{.TaskID}} · {{.Status}}</div>
        {{if .Error}}<div class="error">{{.Error}}</div>{{end}}

        <div class="stats">
            <span>{{.Stats.Items}} items</span>
            <span>{{.Stats.Comments}} comments</span>
            <span class="label label-hate">hate {{.Stats.Hate}}</span>
            <span class="label label-sarcasm">sarcasm {{.Stats.Sarcasm}}</span>
            <span class="label label-safe">safe {{.Stats.Safe}}</span>
            <span class="label label-unknown">unknown {{.Stats.Unknown}}</span>
            <span class="label label-error">error {{.Stats.Error}}</span>
        </div>

        {{range .Items}}
        <div class="item">
            <a href="{{.URL}}" class="url">{{.URL}}</a>
            <div class="meta">{{.Total}} comments · {{.Flagged}} flagged</div>
            {{range .Comments}}
            <div class="comment">
                <span class="label label-{{.Label}}">{{.Label}}</span>
                {{if .ProfileURL}}<a href="{{.ProfileURL}}" class="author">{{.Author}}</a>{{else}}<span class="author">{{.Author}}</span>{{end}}
                <div>{{.Text}}</div>
            </div>
            {{end}}
            {{if .Omitted}}<div class="omitted">{{.Omitted}} more comments not shown</div>{{end}}
        </div>
        {{end}}

        <div class="footer">
            {{len .Items}} items · Generated by hsd
        </div>
    </div>
</body>
</html>`
