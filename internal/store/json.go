package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/addy0032/hate-speech-detection/internal/types"
)

// JSONFile stores records as one JSON array, the comments.json layout
type JSONFile struct {
	path string
}

// NewJSONFile creates a JSON file backend at path
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

func (j *JSONFile) Load(ctx context.Context) ([]types.Comment, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []types.Comment
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", j.path, err)
	}
	return records, nil
}

// Save writes to a temporary file in the same directory and renames it
// over the target, so readers never see a partial document
func (j *JSONFile) Save(ctx context.Context, records []types.Comment) error {
	if records == nil {
		records = []types.Comment{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(j.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), j.path)
}

func (j *JSONFile) Close() error {
	return nil
}
