package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StepName identifies a pipeline stage whose output can be dumped
type StepName string

const (
	StepDiscovered StepName = "discovered"
	StepTasks      StepName = "tasks"
)

// StepCache keeps timestamped JSON dumps of pipeline stages, one
// directory per step
type StepCache struct {
	root string
	now  func() time.Time
}

// NewStepCache creates a step cache rooted at root
func NewStepCache(root string) *StepCache {
	return &StepCache{root: root, now: time.Now}
}

func (c *StepCache) stepDir(step StepName) string {
	return filepath.Join(c.root, string(step))
}

// generateFilename creates a sortable timestamped filename
func (c *StepCache) generateFilename(ext string) string {
	return c.now().UTC().Format("2006-01-02T15-04-05.000000000") + ext
}

// Save writes JSON-serializable data to the step's directory and returns
// the file path
func (c *StepCache) Save(step StepName, data any) (string, error) {
	dir := c.stepDir(step)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create step cache dir: %w", err)
	}

	path := filepath.Join(dir, c.generateFilename(".json"))

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal step output: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write step output: %w", err)
	}

	return path, nil
}

// LoadLatestStep decodes the most recent dump of step into a T
func LoadLatestStep[T any](c *StepCache, step StepName) (T, string, error) {
	var zero T

	latestPath, err := c.Latest(step)
	if err != nil {
		return zero, "", err
	}

	jsonData, err := os.ReadFile(latestPath)
	if err != nil {
		return zero, "", fmt.Errorf("failed to read step output: %w", err)
	}

	var data T
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return zero, "", fmt.Errorf("failed to unmarshal step output: %w", err)
	}

	return data, latestPath, nil
}

// Latest returns the path of the most recent file in a step's directory
func (c *StepCache) Latest(step StepName) (string, error) {
	entries, err := os.ReadDir(c.stepDir(step))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no cached output for step %s", step)
		}
		return "", err
	}

	// os.ReadDir sorts by name, which is chronological for our timestamps
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}

	if len(files) == 0 {
		return "", fmt.Errorf("no cached output for step %s", step)
	}

	return filepath.Join(c.stepDir(step), files[len(files)-1]), nil
}
