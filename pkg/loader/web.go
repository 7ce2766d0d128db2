package loader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/lowrk/distill/internal/models"
	"github.com/lowrk/distill/internal/types"
)

// Web crawls a site starting from one URL, following in-page links
// depth-first. It never leaves the host of the starting URL.
type Web struct {
	config  types.CrawlConfig
	client  *http.Client
	limiter *rate.Limiter
	log     *logrus.Logger
}

func NewWeb(config types.CrawlConfig, log *logrus.Logger) *Web {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 2
	}
	if config.MaxPages == 0 {
		config.MaxPages = 50
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}

	return &Web{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		log:     ensureLogger(log),
	}
}

func (w *Web) Kind() models.SourceKind { return models.KindWeb }

func (w *Web) Load(ctx context.Context, location string) ([]models.Document, error) {
	base, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("loader: parsing url %q: %w", location, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("loader: unsupported scheme %q in %s", base.Scheme, location)
	}

	c := &crawl{
		web:     w,
		host:    base.Host,
		visited: make(map[string]bool),
	}
	if err := c.visit(ctx, location, 0); err != nil {
		return nil, err
	}
	if len(c.docs) == 0 {
		return nil, fmt.Errorf("loader: %w at %s", ErrNoContent, location)
	}
	return c.docs, nil
}

// crawl carries the per-Load state so a single Web loader can serve
// several starting URLs.
type crawl struct {
	web     *Web
	host    string
	visited map[string]bool
	docs    []models.Document
}

func (c *crawl) visit(ctx context.Context, rawURL string, depth int) error {
	if depth > c.web.config.MaxDepth || len(c.visited) >= c.web.config.MaxPages {
		return nil
	}

	normalized, ok := c.normalize(rawURL)
	if !ok || c.visited[normalized] {
		return nil
	}
	c.visited[normalized] = true

	if c.web.config.OnProgress != nil {
		c.web.config.OnProgress(normalized)
	}

	if err := c.web.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalized, nil)
	if err != nil {
		return fmt.Errorf("loader: building request for %s: %w", normalized, err)
	}
	resp, err := c.web.client.Do(req)
	if err != nil {
		return fmt.Errorf("loader: fetching %s: %w", normalized, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("loader: status %d fetching %s", resp.StatusCode, normalized)
	}

	page, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("loader: parsing %s: %w", normalized, err)
	}

	content := extractMainContent(page)
	if content != "" {
		c.docs = append(c.docs, models.Document{
			ID:      uuid.NewString(),
			Source:  normalized,
			Kind:    models.KindWeb,
			Title:   collapseWhitespace(page.Find("title").Text()),
			Content: content,
			Metadata: map[string]interface{}{
				"depth":        depth,
				"content_type": resp.Header.Get("Content-Type"),
				"fetched_at":   time.Now().UTC(),
			},
		})
	}

	baseURL, err := url.Parse(normalized)
	if err != nil {
		return nil
	}

	page.Find("a[href]").Each(func(_ int, selection *goquery.Selection) {
		href, exists := selection.Attr("href")
		if !exists {
			return
		}

		next, err := url.Parse(href)
		if err != nil {
			return
		}
		if !next.IsAbs() {
			next = baseURL.ResolveReference(next)
		}

		if err := c.visit(ctx, next.String(), depth+1); err != nil {
			// A broken link must not abort the whole crawl.
			c.web.log.WithField("url", next.String()).WithError(err).Debug("skipping link")
		}
	})

	return nil
}

// normalize strips fragments and reports whether the URL belongs in
// this crawl.
func (c *crawl) normalize(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	parsed.Fragment = ""

	if parsed.Host != c.host {
		return "", false
	}

	path := strings.ToLower(parsed.Path)
	validExt := false
	for _, ext := range c.web.config.AllowedExtensions {
		if strings.HasSuffix(path, ext) {
			validExt = true
			break
		}
	}
	if !validExt {
		return "", false
	}

	urlStr := parsed.String()
	for _, pattern := range c.web.config.IgnorePatterns {
		if strings.Contains(urlStr, pattern) {
			return "", false
		}
	}

	return urlStr, true
}

func extractMainContent(page *goquery.Document) string {
	// Prefer the content column over navigation and footers.
	selectors := []string{
		"main",
		"article",
		".content",
		"#content",
		".documentation",
		"#documentation",
	}

	var content string
	for _, selector := range selectors {
		if selected := page.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}

	if content == "" {
		content = page.Find("body").Text()
	}

	// Boilerplate strings that survive the selector pass.
	noisePatterns := []string{
		"Cookie Policy",
		"Accept Cookies",
		"Privacy Policy",
		"Terms of Service",
	}
	for _, pattern := range noisePatterns {
		content = strings.ReplaceAll(content, pattern, "")
	}

	return collapseWhitespace(content)
}
