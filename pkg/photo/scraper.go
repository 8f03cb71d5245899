package photo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultScrapeURL is the community photo site searched by registration.
const DefaultScrapeURL = "https://www.jetphotos.com"

// ErrNoPhoto means the page had no usable image element.
var ErrNoPhoto = errors.New("photo: no image found")

// Selectors tried in order on the registration page.
var imageSelectors = []string{"img.result__photo", "img.photo_thumb"}

const userAgent = "spotty/1.0 (+https://github.com/unklstewy/spotty)"

// Scraper extracts a photo URL from the photo site's search-by-registration page.
type Scraper struct {
	baseURL    string
	httpClient *http.Client
}

// NewScraper creates a scraper rooted at baseURL.
func NewScraper(baseURL string, timeout time.Duration) *Scraper {
	if baseURL == "" {
		baseURL = DefaultScrapeURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scraper{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Find fetches /registration/{key} and returns the first result image.
func (s *Scraper) Find(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrNoPhoto)
	}

	pageURL := fmt.Sprintf("%s/registration/%s", s.baseURL, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get URL %s: %w", pageURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get URL %s: status code %d", pageURL, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML from %s: %w", pageURL, err)
	}

	if src := firstImageSource(doc); src != "" {
		return NormalizeURL(src), nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoPhoto, pageURL)
}

// firstImageSource returns src (else data-src) of the first element matching
// the selectors in priority order.
func firstImageSource(doc *goquery.Document) string {
	for _, selector := range imageSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if src := strings.TrimSpace(sel.AttrOr("src", "")); src != "" {
			return src
		}
		if src := strings.TrimSpace(sel.AttrOr("data-src", "")); src != "" {
			return src
		}
	}
	return ""
}

// NormalizeURL rewrites protocol-relative URLs (//host/path) to https.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	return raw
}
