package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Briefing is the terminal artifact of the summarization phase: one plain-text
// file, overwritten on every run. A point-in-time snapshot, not a log.
type Briefing struct {
	filePath string
}

func NewBriefing(filePath string) *Briefing {
	return &Briefing{filePath: filePath}
}

// Save overwrites the briefing artifact with the given text.
func (b *Briefing) Save(text string) error {
	if dir := filepath.Dir(b.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create briefing dir: %w", err)
		}
	}

	if err := os.WriteFile(b.filePath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write briefing file: %w", err)
	}
	return nil
}

// Load reads the current briefing artifact.
func (b *Briefing) Load() (string, error) {
	data, err := os.ReadFile(b.filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read briefing file: %w", err)
	}
	return string(data), nil
}
