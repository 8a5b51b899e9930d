package knowledge

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	fetchTimeout   = 15 * time.Second
	maxFetchBytes  = 1 << 20 // limit 1 MB
	chunkSize      = 1200
	minChunkLength = 40
	minPageLength  = 200
)

// Page is the readable content extracted from a fetched URL.
type Page struct {
	Title string
	Text  string
}

// FetchPage downloads a URL and extracts its readable text. It tries the
// readability parser first and falls back to stripping boilerplate by hand.
func FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "EcoCritique/1.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch of %s returned status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err == nil && len(strings.TrimSpace(article.TextContent)) >= minPageLength {
		return &Page{
			Title: article.Title,
			Text:  strings.TrimSpace(article.TextContent),
		}, nil
	}

	text := extractReadableText(string(body))
	if len(text) < minPageLength {
		return nil, fmt.Errorf("page at %s has no readable text", pageURL)
	}
	return &Page{Text: text}, nil
}

// extractReadableText extracts visible text content from HTML.
// It removes boilerplate (headers, navs, footers, ads, etc.).
func extractReadableText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		re := regexp.MustCompile(`<[^>]+>`)
		return re.ReplaceAllString(html, " ")
	}

	// Remove obvious non-content elements.
	doc.Find("header, nav, footer, aside, script, style, noscript, svg, menu, form").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	// Remove common ad/promo/sidebar elements by class or id.
	junkPatterns := []string{"nav", "menu", "header", "footer", "sidebar", "banner", "cookie", "ad", "promo", "share", "search", "modal", "popup"}
	for _, pattern := range junkPatterns {
		doc.Find(fmt.Sprintf("[class*=%q], [id*=%q]", pattern, pattern)).Each(func(_ int, s *goquery.Selection) {
			s.Remove()
		})
	}

	// Grab all paragraphs and article text.
	var builder strings.Builder
	doc.Find("article, main, section, p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) > 0 {
			builder.WriteString(text)
			if !strings.HasSuffix(text, ".") {
				builder.WriteString(". ")
			} else {
				builder.WriteString(" ")
			}
		}
	})

	text := builder.String()
	text = regexp.MustCompile(`\s+`).ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// chunkText splits text into roughly equal sized chunks, preferring to break
// at paragraph, line, or word boundaries.
func chunkText(text string, size int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= size {
			chunks = append(chunks, strings.TrimSpace(text))
			break
		}

		cutPoint := size
		if idx := strings.LastIndex(text[:cutPoint], "\n\n"); idx > size/2 {
			cutPoint = idx + 2
		} else if idx := strings.LastIndex(text[:cutPoint], "\n"); idx > size/2 {
			cutPoint = idx + 1
		} else if idx := strings.LastIndex(text[:cutPoint], " "); idx > size/2 {
			cutPoint = idx + 1
		}

		chunks = append(chunks, strings.TrimSpace(text[:cutPoint]))
		text = text[cutPoint:]
	}
	return chunks
}

// Ingest fetches a page and stores its readable text as snippets attached to
// an article (zero for the course-wide pool). It returns the number of
// snippets stored.
func (s *Store) Ingest(ctx context.Context, articleID uint, pageURL string) (int, error) {
	page, err := FetchPage(ctx, pageURL)
	if err != nil {
		return 0, err
	}

	stored := 0
	for i, chunk := range chunkText(page.Text, chunkSize) {
		if len(chunk) < minChunkLength {
			continue
		}
		snip := &Snippet{
			ArticleID: articleID,
			Text:      chunk,
			Source:    pageURL,
			Position:  i,
		}
		if err := s.Add(ctx, snip); err != nil {
			return stored, fmt.Errorf("failed to store chunk %d: %w", i, err)
		}
		stored++
	}

	log.Printf("[Knowledge] Ingested %d snippets from %s", stored, pageURL)
	return stored, nil
}
