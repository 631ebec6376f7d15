package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deusflow/NewsBrief/internal/feed"
	"github.com/deusflow/NewsBrief/internal/storage"
)

type fakeFetcher struct {
	entries map[string][]feed.Entry
}

func (f *fakeFetcher) Fetch(_ context.Context, source feed.Source) []feed.Entry {
	return f.entries[source.Name]
}

type fakeExtractor struct {
	content string
	calls   []string
}

func (f *fakeExtractor) Extract(_ context.Context, url string) string {
	f.calls = append(f.calls, url)
	return f.content
}

type failingStore struct {
	attempts int
}

func (s *failingStore) Upsert(storage.Article) error {
	s.attempts++
	return errors.New("disk full")
}

func TestRunStoresArticlesFromAllSources(t *testing.T) {
	history := storage.NewHistory(filepath.Join(t.TempDir(), "history.json"))
	fetcher := &fakeFetcher{entries: map[string][]feed.Entry{
		"alpha": {{Title: "A1", Link: "https://a.example.com/1"}},
		"beta":  {{Title: "B1", Link: "https://b.example.com/1"}},
	}}
	extractor := &fakeExtractor{content: "extracted body"}

	pipeline := NewPipeline(fetcher, extractor, history)
	pipeline.Run(context.Background(), []feed.Source{{Name: "alpha"}, {Name: "beta"}})

	articles := history.Load()
	require.Len(t, articles, 2)
	require.Equal(t, "A1", articles[0].Title)
	require.Equal(t, "alpha", articles[0].Source)
	require.Equal(t, "extracted body", articles[0].Content)
	require.NotEmpty(t, articles[0].FetchedAt)
	require.Equal(t, "beta", articles[1].Source)
}

func TestRunTwiceDeduplicatesByLink(t *testing.T) {
	history := storage.NewHistory(filepath.Join(t.TempDir(), "history.json"))
	fetcher := &fakeFetcher{entries: map[string][]feed.Entry{
		"alpha": {{Title: "A1", Link: "https://a.example.com/1"}},
		"beta":  {{Title: "B1", Link: "https://b.example.com/1"}},
	}}
	sources := []feed.Source{{Name: "alpha"}, {Name: "beta"}}

	// Seed a stale record so the refresh on re-ingest is observable.
	require.NoError(t, history.Upsert(storage.Article{
		Title:     "A1",
		Link:      "https://a.example.com/1",
		Source:    "alpha",
		Content:   "stale content",
		FetchedAt: "2020-01-01 00:00:00",
	}))

	extractor := &fakeExtractor{content: "fresh content"}
	pipeline := NewPipeline(fetcher, extractor, history)
	pipeline.Run(context.Background(), sources)
	pipeline.Run(context.Background(), sources)

	articles := history.Load()
	require.Len(t, articles, 2, "identical links must not accumulate")
	require.Equal(t, "https://a.example.com/1", articles[0].Link)
	require.Equal(t, "fresh content", articles[0].Content)
	require.NotEqual(t, "2020-01-01 00:00:00", articles[0].FetchedAt, "fetched_at must be refreshed")
}

func TestRunSkipsEntriesWithoutLink(t *testing.T) {
	history := storage.NewHistory(filepath.Join(t.TempDir(), "history.json"))
	fetcher := &fakeFetcher{entries: map[string][]feed.Entry{
		"alpha": {
			{Title: "no link"},
			{Title: "has link", Link: "https://a.example.com/1"},
		},
	}}
	extractor := &fakeExtractor{content: "body"}

	NewPipeline(fetcher, extractor, history).Run(context.Background(), []feed.Source{{Name: "alpha"}})

	require.Equal(t, []string{"https://a.example.com/1"}, extractor.calls, "linkless entries must not be fetched")
	require.Len(t, history.Load(), 1)
}

func TestRunContinuesPastStoreFailures(t *testing.T) {
	store := &failingStore{}
	fetcher := &fakeFetcher{entries: map[string][]feed.Entry{
		"alpha": {{Title: "A1", Link: "https://a.example.com/1"}},
		"beta":  {{Title: "B1", Link: "https://b.example.com/1"}},
	}}
	extractor := &fakeExtractor{content: "body"}

	NewPipeline(fetcher, extractor, store).Run(context.Background(), []feed.Source{{Name: "alpha"}, {Name: "beta"}})

	require.Equal(t, 2, store.attempts, "a failed write must not stop the remaining work")
}

func TestRunStoresInlineExtractionFailures(t *testing.T) {
	history := storage.NewHistory(filepath.Join(t.TempDir(), "history.json"))
	fetcher := &fakeFetcher{entries: map[string][]feed.Entry{
		"alpha": {{Title: "A1", Link: "https://a.example.com/1"}},
	}}
	extractor := &fakeExtractor{content: "extraction failed: connection refused"}

	NewPipeline(fetcher, extractor, history).Run(context.Background(), []feed.Source{{Name: "alpha"}})

	articles := history.Load()
	require.Len(t, articles, 1, "a failed extraction still yields a stored record")
	require.Contains(t, articles[0].Content, "extraction failed")
}
