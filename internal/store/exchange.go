package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Exchange is one classifier request/response pair kept for debugging
type Exchange struct {
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Error     string    `json:"error,omitempty"`
}

// ExchangeCache writes exchanges as individual JSON files under a directory
type ExchangeCache struct {
	dir string
}

// NewExchangeCache creates a cache rooted at dir, usually <cache dir>/llm
func NewExchangeCache(dir string) *ExchangeCache {
	return &ExchangeCache{dir: dir}
}

// Dir returns the cache directory
func (c *ExchangeCache) Dir() string {
	return c.dir
}

// Save serializes an exchange to a timestamped file and returns its path.
// Classification runs concurrently, so names carry a random suffix.
func (c *ExchangeCache) Save(ex Exchange) (string, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", err
	}

	// Dashes instead of colons for filesystem compatibility
	filename := fmt.Sprintf("%s-%s.json", ex.Timestamp.Format("2006-01-02T15-04-05"), uuid.NewString()[:8])
	path := filepath.Join(c.dir, filename)

	data, err := json.MarshalIndent(ex, "", "  ")
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}

	return path, nil
}
