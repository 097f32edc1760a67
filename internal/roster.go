package internal

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nordview/invoicer/internal/domain"
)

// LoadRoster reads the company and client configuration from a JSON file.
// Structural validation is the pipeline's job; this only fails on
// unreadable or syntactically invalid input.
func LoadRoster(path string) (domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Config{}, fmt.Errorf("failed to read roster %s: %w", path, err)
	}

	var cfg domain.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("failed to parse roster %s: %w", path, err)
	}

	return cfg, nil
}
