package task

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ExportHeader is the first CSV row written by WriteCSV
var ExportHeader = []string{"Post URL", "Comment", "Label", "Author Name", "User Profile URL"}

// ExportRow is one flattened comment of a completed task
type ExportRow struct {
	ItemURL          string `json:"post_url"`
	Text             string `json:"comment"`
	Label            string `json:"label"`
	AuthorName       string `json:"author_name"`
	AuthorProfileURL string `json:"user_profile_url"`
}

// Export flattens the results of a completed task. Tasks in any other
// state return ErrNotCompleted.
func (m *Manager) Export(id string) ([]ExportRow, error) {
	snap, ok := m.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if snap.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotCompleted, id, snap.Status)
	}
	return Rows(snap), nil
}

// Rows flattens a snapshot's results in item then comment order
func Rows(snap Snapshot) []ExportRow {
	rows := make([]ExportRow, 0, snap.CommentCount())
	for _, res := range snap.Results {
		for _, c := range res.Comments {
			rows = append(rows, ExportRow{
				ItemURL:          res.ItemURL,
				Text:             c.Text,
				Label:            string(c.Label),
				AuthorName:       c.AuthorName,
				AuthorProfileURL: c.AuthorProfileURL,
			})
		}
	}
	return rows
}

// WriteCSV writes rows with ExportHeader
func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.ItemURL, r.Text, r.Label, r.AuthorName, r.AuthorProfileURL}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
