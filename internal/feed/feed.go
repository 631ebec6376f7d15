package feed

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/NewsBrief/internal/logger"
	"github.com/deusflow/NewsBrief/internal/metrics"
)

// Source is one configured feed endpoint.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Entry is one candidate article reference from a feed. Link is the
// deduplication key against the history store.
type Entry struct {
	Title string
	Link  string
}

// SourcesConfig is YAML config structure
// rss_sources:
//   - name: ...
//     url: https://...
type SourcesConfig struct {
	Sources []Source `yaml:"rss_sources"`
}

// Some feeds block generic bots, so fetches use a browser User-Agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// LoadSources reads the feed source list from a YAML file.
func LoadSources(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg SourcesConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return cfg.Sources, nil
}

// Fetcher downloads and parses feeds.
type Fetcher struct {
	parser     *gofeed.Parser
	maxEntries int
}

// NewFetcher creates a Fetcher that yields at most maxEntries entries per feed.
func NewFetcher(timeout time.Duration, maxEntries int) *Fetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: timeout}

	return &Fetcher{
		parser:     parser,
		maxEntries: maxEntries,
	}
}

// Fetch parses one feed and returns its entries in feed order, truncated to
// the per-feed cap. A feed that is unreachable or fails to parse yields an
// empty slice, never an error: the caller must not care which of the two
// happened.
func (f *Fetcher) Fetch(ctx context.Context, source Source) []Entry {
	feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		metrics.Global.IncrementSourcesFailed()
		logger.Warn("feed fetch failed", "source", source.Name, "url", source.URL, "error", err)
		return nil
	}

	items := feed.Items
	if len(items) > f.maxEntries {
		items = items[:f.maxEntries]
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry{
			Title: item.Title,
			Link:  item.Link,
		})
	}

	logger.Info("feed fetched", "source", source.Name, "entries", len(entries))
	return entries
}
