// Package ingest drives the feed-to-history pipeline: fetch candidate entries
// per source, extract each article's text, upsert it into the history store.
package ingest

import (
	"context"

	"github.com/deusflow/NewsBrief/internal/extract"
	"github.com/deusflow/NewsBrief/internal/feed"
	"github.com/deusflow/NewsBrief/internal/logger"
	"github.com/deusflow/NewsBrief/internal/metrics"
	"github.com/deusflow/NewsBrief/internal/storage"
)

// Fetcher yields candidate entries for one feed source.
type Fetcher interface {
	Fetch(ctx context.Context, source feed.Source) []feed.Entry
}

// Extractor turns an article URL into plain body text. Failures come back as
// inline text, never as errors.
type Extractor interface {
	Extract(ctx context.Context, url string) string
}

// Store persists deduplicated articles.
type Store interface {
	Upsert(article storage.Article) error
}

type Pipeline struct {
	fetcher   Fetcher
	extractor Extractor
	store     Store
}

func NewPipeline(fetcher Fetcher, extractor Extractor, store Store) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		store:     store,
	}
}

// Run processes every source independently. The source boundary is the
// failure-containment boundary: whatever goes wrong inside one source is
// logged there, and the remaining sources still run.
func (p *Pipeline) Run(ctx context.Context, sources []feed.Source) {
	for _, source := range sources {
		p.processSource(ctx, source)
	}
}

func (p *Pipeline) processSource(ctx context.Context, source feed.Source) {
	logger.Info("processing source", "source", source.Name, "url", source.URL)

	entries := p.fetcher.Fetch(ctx, source)
	metrics.Global.AddEntriesSeen(int64(len(entries)))

	stored := 0
	for _, entry := range entries {
		// Nothing to fetch or deduplicate against without a link.
		if entry.Link == "" {
			logger.Debug("skipping entry without link", "source", source.Name, "title", entry.Title)
			continue
		}

		content := p.extractor.Extract(ctx, entry.Link)
		if extract.IsFailure(content) {
			metrics.Global.IncrementExtractionFailures()
			logger.Warn("article extraction failed", "link", entry.Link, "detail", content)
		}

		article := storage.Article{
			Title:     entry.Title,
			Link:      entry.Link,
			Source:    source.Name,
			Content:   content,
			FetchedAt: storage.Now(),
		}

		if err := p.store.Upsert(article); err != nil {
			// A dropped write is reported, not fatal: the run continues with
			// whatever state the store is in.
			logger.Error("failed to store article", "link", entry.Link, "error", err)
			continue
		}

		stored++
		metrics.Global.IncrementArticlesStored()
		logger.Info("article stored", "source", source.Name, "title", entry.Title, "chars", len(content))
	}

	metrics.Global.IncrementSourcesProcessed()
	logger.Info("source done", "source", source.Name, "entries", len(entries), "stored", stored)
}
