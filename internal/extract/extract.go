// Package extract reduces raw article pages to plain-text bodies.
//
// Extraction is a deterministic heuristic over parsed markup: an ordered list
// of strategies tried in sequence, each returning an optional result. The last
// strategy always produces something, so extraction only fails on transport or
// parse errors — and even those are folded into the returned text, because one
// unreachable article must not abort a batch.
package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/deusflow/NewsBrief/internal/logger"
)

// Browser navigation profile: some sites serve error pages to anything that
// does not look like a real browser, and those would be mistaken for content.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
	"Accept-Language":           "en-US,en;q=0.9,zh-CN;q=0.8,zh;q=0.7",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Cache-Control":             "max-age=0",
}

// Tags whose text is never article body. Removed from the document before any
// strategy runs so nested text cannot leak into later tiers.
const junkSelector = "script, style, nav, footer, iframe, noscript"

const (
	minContainerLen = 100 // primary container must exceed this to win tier 1
	minParagraphLen = 10  // per-paragraph threshold in tier 2
	minJoinedLen    = 50  // joined paragraphs must exceed this to win tier 2
)

// failurePrefix marks inline error text returned in place of article content.
const failurePrefix = "extraction failed:"

// IsFailure reports whether text is an inline extraction error rather than
// real article content.
func IsFailure(text string) bool {
	return strings.HasPrefix(text, failurePrefix)
}

func failure(err error) string {
	return fmt.Sprintf("%s %v", failurePrefix, err)
}

// Extractor fetches article pages and extracts their readable text.
type Extractor struct {
	client *http.Client
}

func NewExtractor(timeout time.Duration) *Extractor {
	return &Extractor{
		client: &http.Client{Timeout: timeout},
	}
}

// Extract fetches url and returns its readable body text. It never returns an
// error: transport, encoding and parse failures come back as a human-readable
// inline string so the caller can store it and move on.
func (e *Extractor) Extract(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return failure(err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return failure(err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", "url", url, "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("%s HTTP status %d", failurePrefix, resp.StatusCode)
	}

	// Sniff the real encoding from the body bytes; the advertised charset is
	// only a hint, and misconfigured servers lie about it.
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return failure(err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return failure(err)
	}

	return FromDocument(doc)
}

// strategy attempts one extraction tier. ok reports whether the tier produced
// an acceptable result; if not, the next tier runs.
type strategy func(doc *goquery.Document) (text string, ok bool)

var strategies = []strategy{
	articleContainerText,
	paragraphText,
	fullBodyText,
}

// FromDocument extracts readable text from an already parsed document using
// the tiered heuristic. The final tier always succeeds, so the result may be
// short but is never an error.
func FromDocument(doc *goquery.Document) string {
	doc.Find(junkSelector).Remove()

	for _, s := range strategies {
		if text, ok := s(doc); ok {
			return text
		}
	}
	return ""
}

// articleContainerText returns the text of the primary <article> container
// when it holds enough text to be the story body.
func articleContainerText(doc *goquery.Document) (string, bool) {
	container := doc.Find("article").First()
	if container.Length() == 0 {
		return "", false
	}

	text := blockText(container)
	if utf8.RuneCountInString(text) <= minContainerLen {
		return "", false
	}
	return text, true
}

// paragraphText joins all paragraphs long enough to be prose. Accepted only
// if the joined result carries enough text to stand in for the body.
func paragraphText(doc *goquery.Document) (string, bool) {
	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(text) > minParagraphLen {
			paragraphs = append(paragraphs, text)
		}
	})

	joined := strings.Join(paragraphs, "\n")
	if utf8.RuneCountInString(joined) <= minJoinedLen {
		return "", false
	}
	return joined, true
}

// fullBodyText is the last resort: the whole document body, even if short.
func fullBodyText(doc *goquery.Document) (string, bool) {
	return blockText(doc.Find("body")), true
}

// blockText walks the selection's text nodes, trims each block and joins the
// non-empty ones with newlines.
func blockText(sel *goquery.Selection) string {
	var blocks []string
	for _, node := range sel.Nodes {
		collectText(node, &blocks)
	}
	return strings.Join(blocks, "\n")
}

func collectText(n *html.Node, blocks *[]string) {
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*blocks = append(*blocks, text)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, blocks)
	}
}
