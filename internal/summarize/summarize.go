// Package summarize folds stored articles into a briefing in two stages: a
// map stage that digests each article with one model call, and a reduce stage
// that merges all digests with one final call.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/deusflow/NewsBrief/internal/cache"
	"github.com/deusflow/NewsBrief/internal/llm"
	"github.com/deusflow/NewsBrief/internal/logger"
	"github.com/deusflow/NewsBrief/internal/metrics"
	"github.com/deusflow/NewsBrief/internal/ratelimit"
	"github.com/deusflow/NewsBrief/internal/storage"
)

// Digest is the map-stage output for one article. A failed summarization
// still occupies its slot: Body carries an inline explanation and Failed is
// set, so ordering and provenance survive into the reduce stage.
type Digest struct {
	Index  int
	Title  string
	Body   string
	Failed bool
}

const digestSystemPrompt = "You are an experienced news editor who excels at summarizing news articles."

const digestPromptFormat = `Summarize this news article briefly. Your summary must cover these fields:
- Core event: what happened
- Key facts: figures, decisions, statements
- Involved parties: people, organizations, countries
- Time and place

Title: %s
Source: %s
Body:
%s`

const briefingSystemPrompt = "You are a professional political-economy analyst. You receive per-article summaries from multiple news organizations and synthesize them into one deep, coherent report."

const briefingPromptFormat = `Below are brief summaries of individual news articles:

%s

Produce a consolidated briefing. Group the items by topic, region or issue, merge duplicate coverage of the same event within a group, and end each group with a one-line forward-looking implication.`

// Summarizer runs both stages against a single model collaborator.
type Summarizer struct {
	completer     llm.Completer
	budget        *ratelimit.RequestBudget
	digests       *cache.DigestCache
	maxContentLen int
}

func New(completer llm.Completer, budget *ratelimit.RequestBudget, digests *cache.DigestCache, maxContentLen int) *Summarizer {
	return &Summarizer{
		completer:     completer,
		budget:        budget,
		digests:       digests,
		maxContentLen: maxContentLen,
	}
}

// SummarizeEach produces exactly one digest per input article, in input
// order. A model failure on one article yields a sentinel digest in its slot;
// it never shortens the output or stops the batch.
func (s *Summarizer) SummarizeEach(ctx context.Context, articles []storage.Article) []Digest {
	digests := make([]Digest, len(articles))
	for i, article := range articles {
		logger.Info("summarizing article", "index", i+1, "total", len(articles), "title", article.Title)
		digests[i] = s.summarizeOne(ctx, i, article)
	}
	return digests
}

func (s *Summarizer) summarizeOne(ctx context.Context, index int, article storage.Article) Digest {
	// Cost/latency bound, not a correctness rule: over-length content is
	// normal and truncated silently.
	content := truncate(article.Content, s.maxContentLen)

	key := cache.Key(article.Title, content)
	if body, ok := s.digests.Get(key); ok {
		logger.Debug("digest cache hit", "title", article.Title)
		return Digest{Index: index, Title: article.Title, Body: body}
	}

	if !s.budget.Allow() {
		metrics.Global.IncrementDigestsFailed()
		return sentinel(index, article.Title, "model request budget exhausted")
	}

	prompt := fmt.Sprintf(digestPromptFormat, article.Title, article.Source, content)
	body, err := s.completer.Complete(ctx, digestSystemPrompt, prompt)
	if err != nil {
		metrics.Global.IncrementDigestsFailed()
		logger.Warn("article summarization failed", "title", article.Title, "error", err)
		return sentinel(index, article.Title, err.Error())
	}

	s.digests.Set(key, body)
	metrics.Global.IncrementDigestsGenerated()
	return Digest{Index: index, Title: article.Title, Body: body}
}

func sentinel(index int, title, reason string) Digest {
	return Digest{
		Index:  index,
		Title:  title,
		Body:   fmt.Sprintf("(summary unavailable: %s)", reason),
		Failed: true,
	}
}

// Succeeded counts genuine digests. Zero successes means there is nothing to
// reduce and the caller must not invoke Aggregate.
func Succeeded(digests []Digest) int {
	n := 0
	for _, d := range digests {
		if !d.Failed {
			n++
		}
	}
	return n
}

// Aggregate folds all digests into one briefing with a single model call.
// Sentinels are included: their title and failure note are still context.
// There is no finer granularity to isolate a failure to here, so an error is
// terminal for the run.
func (s *Summarizer) Aggregate(ctx context.Context, digests []Digest) (string, error) {
	blocks := make([]string, 0, len(digests))
	for _, d := range digests {
		blocks = append(blocks, fmt.Sprintf("[Article %d] %s\n%s", d.Index+1, d.Title, d.Body))
	}
	combined := strings.Join(blocks, "\n\n")

	briefing, err := s.completer.Complete(ctx, briefingSystemPrompt, fmt.Sprintf(briefingPromptFormat, combined))
	if err != nil {
		return "", fmt.Errorf("briefing generation failed: %w", err)
	}
	return briefing, nil
}

func truncate(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes])
}
