// Package app wires the configured components into the three run phases:
// ingest (feeds into the history store), summarize (history into a briefing)
// and deliver (briefing into the Feishu table). The phases share no memory;
// they meet only at the persisted artifacts, so they can be scheduled
// independently.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deusflow/NewsBrief/internal/cache"
	"github.com/deusflow/NewsBrief/internal/config"
	"github.com/deusflow/NewsBrief/internal/delivery"
	"github.com/deusflow/NewsBrief/internal/extract"
	"github.com/deusflow/NewsBrief/internal/feed"
	"github.com/deusflow/NewsBrief/internal/ingest"
	"github.com/deusflow/NewsBrief/internal/llm"
	"github.com/deusflow/NewsBrief/internal/logger"
	"github.com/deusflow/NewsBrief/internal/metrics"
	"github.com/deusflow/NewsBrief/internal/ratelimit"
	"github.com/deusflow/NewsBrief/internal/storage"
	"github.com/deusflow/NewsBrief/internal/summarize"
)

// RunIngest fetches every configured source and persists extracted articles
// into the history store.
func RunIngest(ctx context.Context, cfg *config.Config) error {
	sources, err := feed.LoadSources(cfg.SourcesConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load sources config: %w", err)
	}
	if len(sources) == 0 {
		return errors.New("no feed sources configured")
	}

	fetcher := feed.NewFetcher(cfg.FeedTimeout, cfg.MaxEntriesPerFeed)
	extractor := extract.NewExtractor(cfg.ArticleTimeout)
	history := storage.NewHistory(cfg.HistoryFilePath)

	start := time.Now()
	ingest.NewPipeline(fetcher, extractor, history).Run(ctx, sources)
	metrics.Global.RecordRunDuration(time.Since(start))
	metrics.Global.SetLastRun()

	logger.Info("ingest finished", "sources", len(sources), "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// RunSummarize reads the history store, digests each article (map stage) and
// folds the digests into one briefing (reduce stage). Three things end this
// phase without a briefing: an empty history, zero successful digests, or a
// failed reduce call — all reported, none a crash.
func RunSummarize(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateSummarize(); err != nil {
		return err
	}

	completer, cleanup, err := newCompleter(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	return runSummarize(ctx, cfg, completer)
}

func runSummarize(ctx context.Context, cfg *config.Config, completer llm.Completer) error {
	articles := storage.NewHistory(cfg.HistoryFilePath).Load()
	if len(articles) == 0 {
		return errors.New("no stored articles to summarize")
	}
	logger.Info("loaded article history", "articles", len(articles))

	summarizer := summarize.New(
		completer,
		ratelimit.NewRequestBudget(cfg.MaxLLMRequests),
		cache.New(cfg.DigestCacheTTL),
		cfg.MaxContentLen,
	)

	digests := summarizer.SummarizeEach(ctx, articles)
	if summarize.Succeeded(digests) == 0 {
		return errors.New("nothing to reduce: no article summary succeeded")
	}

	briefing, err := summarizer.Aggregate(ctx, digests)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return err
	}

	if err := storage.NewBriefing(cfg.BriefingFilePath).Save(briefing); err != nil {
		return err
	}

	logger.Info("briefing saved", "path", cfg.BriefingFilePath, "chars", len(briefing))
	return nil
}

// RunDeliver posts the current briefing artifact to the Feishu table.
func RunDeliver(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateDeliver(); err != nil {
		return err
	}

	briefing, err := storage.NewBriefing(cfg.BriefingFilePath).Load()
	if err != nil {
		return err
	}
	if strings.TrimSpace(briefing) == "" {
		logger.Warn("briefing is empty, skipping delivery")
		return nil
	}

	client := delivery.NewFeishuClient(cfg.FeishuAppID, cfg.FeishuAppSecret, cfg.FeishuAppToken, cfg.FeishuTableID)
	if err := client.SendBriefing(ctx, time.Now(), briefing); err != nil {
		metrics.Global.SetError(err.Error())
		return err
	}

	metrics.Global.IncrementBriefingsDelivered()
	return nil
}

// newCompleter builds the configured provider and bounds every model call
// with the configured request timeout, so a hung provider cannot stall a run.
func newCompleter(ctx context.Context, cfg *config.Config) (llm.Completer, func(), error) {
	switch cfg.LLMProvider {
	case "gemini":
		client, err := llm.NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, nil, err
		}
		return llm.WithTimeout(client, cfg.LLMTimeout), client.Close, nil
	default:
		client := llm.NewOpenAIClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
		return llm.WithTimeout(client, cfg.LLMTimeout), func() {}, nil
	}
}
