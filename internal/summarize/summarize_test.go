package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/deusflow/NewsBrief/internal/cache"
	"github.com/deusflow/NewsBrief/internal/ratelimit"
	"github.com/deusflow/NewsBrief/internal/storage"
)

// scriptedCompleter fails requests whose user prompt contains any of the
// failOn markers and records every prompt it receives.
type scriptedCompleter struct {
	failOn  []string
	prompts []string
	reply   string
}

func (c *scriptedCompleter) Complete(_ context.Context, _, userPrompt string) (string, error) {
	c.prompts = append(c.prompts, userPrompt)
	for _, marker := range c.failOn {
		if strings.Contains(userPrompt, marker) {
			return "", errors.New("model rejected request")
		}
	}
	if c.reply != "" {
		return c.reply, nil
	}
	return "digest of: " + firstLine(userPrompt), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func newTestSummarizer(completer *scriptedCompleter, maxRequests int) *Summarizer {
	return New(completer, ratelimit.NewRequestBudget(maxRequests), cache.New(time.Hour), 5000)
}

func makeArticles(n int) []storage.Article {
	articles := make([]storage.Article, n)
	for i := range articles {
		articles[i] = storage.Article{
			Title:   fmt.Sprintf("Story %d", i+1),
			Link:    fmt.Sprintf("https://example.com/%d", i+1),
			Source:  "wire",
			Content: fmt.Sprintf("unique body %d with some substance", i+1),
		}
	}
	return articles
}

func TestSummarizeEachProducesOneDigestPerArticle(t *testing.T) {
	completer := &scriptedCompleter{}
	s := newTestSummarizer(completer, 0)

	digests := s.SummarizeEach(context.Background(), makeArticles(3))

	require.Len(t, digests, 3)
	for i, d := range digests {
		require.Equal(t, i, d.Index)
		require.Equal(t, fmt.Sprintf("Story %d", i+1), d.Title)
		require.False(t, d.Failed)
	}
	require.Equal(t, 3, Succeeded(digests))
}

func TestSummarizeEachIsolatesFailures(t *testing.T) {
	// Articles 2 and 4 fail; their slots must hold sentinels, everything
	// else genuine digests, order untouched.
	completer := &scriptedCompleter{failOn: []string{"unique body 2", "unique body 4"}}
	s := newTestSummarizer(completer, 0)

	digests := s.SummarizeEach(context.Background(), makeArticles(5))

	require.Len(t, digests, 5)
	for i, d := range digests {
		require.Equal(t, i, d.Index)
	}
	require.True(t, digests[1].Failed)
	require.True(t, digests[3].Failed)
	require.Equal(t, "Story 2", digests[1].Title, "sentinel keeps the original title")
	require.Contains(t, digests[1].Body, "summary unavailable")
	require.Equal(t, 3, Succeeded(digests))
}

func TestSummarizeEachAllFailuresMeansNothingToReduce(t *testing.T) {
	completer := &scriptedCompleter{failOn: []string{"unique body"}}
	s := newTestSummarizer(completer, 0)

	digests := s.SummarizeEach(context.Background(), makeArticles(4))

	require.Len(t, digests, 4)
	require.Equal(t, 0, Succeeded(digests))
}

func TestSummarizeEachTruncatesContentSilently(t *testing.T) {
	completer := &scriptedCompleter{}
	s := newTestSummarizer(completer, 0)

	long := strings.Repeat("字", 6000)
	articles := []storage.Article{{Title: "Long", Source: "wire", Content: long}}

	digests := s.SummarizeEach(context.Background(), articles)

	require.False(t, digests[0].Failed)
	require.Len(t, completer.prompts, 1)
	require.Equal(t, 5000, strings.Count(completer.prompts[0], "字"), "submitted content must be the 5000-rune prefix")
	require.True(t, utf8.ValidString(completer.prompts[0]), "truncation must not split runes")
}

func TestSummarizeEachReusesCachedDigests(t *testing.T) {
	completer := &scriptedCompleter{}
	s := newTestSummarizer(completer, 0)

	article := storage.Article{Title: "Same", Source: "wire", Content: "identical body"}
	digests := s.SummarizeEach(context.Background(), []storage.Article{article, article})

	require.Len(t, completer.prompts, 1, "identical content must cost one model call")
	require.Equal(t, digests[0].Body, digests[1].Body)
	require.Equal(t, 2, Succeeded(digests))
}

func TestSummarizeEachHonorsRequestBudget(t *testing.T) {
	completer := &scriptedCompleter{}
	s := newTestSummarizer(completer, 2)

	digests := s.SummarizeEach(context.Background(), makeArticles(4))

	require.Len(t, completer.prompts, 2)
	require.Equal(t, 2, Succeeded(digests))
	require.True(t, digests[2].Failed)
	require.True(t, digests[3].Failed)
	require.Contains(t, digests[2].Body, "budget exhausted")
}

func TestAggregateCombinesDigestsInOrder(t *testing.T) {
	completer := &scriptedCompleter{reply: "the final briefing"}
	s := newTestSummarizer(completer, 0)

	digests := []Digest{
		{Index: 0, Title: "First", Body: "first digest"},
		{Index: 1, Title: "Second", Body: "(summary unavailable: model rejected request)", Failed: true},
		{Index: 2, Title: "Third", Body: "third digest"},
	}

	briefing, err := s.Aggregate(context.Background(), digests)
	require.NoError(t, err)
	require.Equal(t, "the final briefing", briefing)

	require.Len(t, completer.prompts, 1)
	prompt := completer.prompts[0]
	first := strings.Index(prompt, "first digest")
	sentinel := strings.Index(prompt, "summary unavailable")
	third := strings.Index(prompt, "third digest")
	require.True(t, first >= 0 && sentinel >= 0 && third >= 0, "all digests, sentinels included, must reach the reduce prompt")
	require.True(t, first < sentinel && sentinel < third, "digest order must be preserved")
	require.Contains(t, prompt, "Second", "sentinel title still contributes context")
}

func TestAggregateFailureIsTerminal(t *testing.T) {
	completer := &scriptedCompleter{failOn: []string{"digest"}}
	s := newTestSummarizer(completer, 0)

	_, err := s.Aggregate(context.Background(), []Digest{{Index: 0, Title: "Only", Body: "a digest"}})
	require.Error(t, err)
}
