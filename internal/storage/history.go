package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/deusflow/NewsBrief/internal/logger"
)

// TimeFormat is how Article.FetchedAt is rendered in the history file.
const TimeFormat = "2006-01-02 15:04:05"

// Article is the persisted unit of the history store. Link is the unique key:
// at most one Article per distinct link exists at any time.
type Article struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	Content   string `json:"content"`
	FetchedAt string `json:"fetched_at"`
}

// Now returns the current timestamp in the history file format.
func Now() string {
	return time.Now().Format(TimeFormat)
}

// History is the deduplicated article log, persisted as an ordered JSON array.
// Insertion order is preserved for new links; an existing link is overwritten
// in place without reordering.
//
// Writes are best-effort: the file is rewritten whole, so a crash mid-write
// can leave it truncated. The next Load treats that as empty and the history
// rebuilds over subsequent runs.
type History struct {
	filePath string
	mu       sync.Mutex
}

// NewHistory creates a history store backed by the given file. The file does
// not need to exist yet.
func NewHistory(filePath string) *History {
	return &History{filePath: filePath}
}

// Load reads the persisted article sequence. A missing, empty or corrupt file
// reads as an empty sequence, never an error; corrupt content is logged.
func (h *History) Load() []Article {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load()
}

func (h *History) load() []Article {
	data, err := os.ReadFile(h.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read history file", "path", h.filePath, "error", err)
		}
		return nil
	}

	if len(data) == 0 {
		return nil
	}

	var articles []Article
	if err := json.Unmarshal(data, &articles); err != nil {
		logger.Warn("history file is corrupt, treating as empty", "path", h.filePath, "error", err)
		return nil
	}

	return articles
}

// Upsert stores one article. An existing record with the same link is replaced
// in place, keeping its position; otherwise the article is appended. Calling
// Upsert twice with identical input yields the same stored state.
func (h *History) Upsert(article Article) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	articles := h.load()

	updated := false
	for i := range articles {
		if articles[i].Link == article.Link {
			articles[i] = article
			updated = true
			break
		}
	}
	if !updated {
		articles = append(articles, article)
	}

	return h.write(articles)
}

func (h *History) write(articles []Article) error {
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if dir := filepath.Dir(h.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create history dir: %w", err)
		}
	}

	if err := os.WriteFile(h.filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}
