package scrape

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"flanergide/pkg/logger"
	"flanergide/pkg/models"
)

// Fetcher retrieves recent posts from a blog. Implementations return an
// error rather than an empty list on network failure so callers never
// mistake an outage for an empty blog.
type Fetcher interface {
	Fetch(ctx context.Context) ([]models.ScrapedPost, error)
}

const maxPosts = 10

// feedPaths are tried in order against the blog base URL before giving up.
var feedPaths = []string{"feed.xml", "atom.xml", "feed.json", "rss", "feed"}

// HTTPFetcher fetches a blog's RSS/Atom/JSON feed.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) ([]models.ScrapedPost, error) {
	var lastErr error
	for _, p := range feedPaths {
		url := f.baseURL + "/" + p
		posts, err := f.fetchFeed(ctx, url)
		if err != nil {
			lastErr = err
			logger.Debug("feed_fetch_failed", "url", url, "err", err)
			continue
		}
		if len(posts) > 0 {
			logger.Info("feed_fetched", "url", url, "posts", len(posts))
			return posts, nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("no readable feed under %s: %w", f.baseURL, lastErr)
	}
	return nil, fmt.Errorf("no readable feed under %s", f.baseURL)
}

func (f *HTTPFetcher) fetchFeed(ctx context.Context, url string) ([]models.ScrapedPost, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "flanergide/1.0")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(url, ".json") {
		return parseJSONFeed(body)
	}
	return parseXMLFeed(body)
}

// rssDoc covers both RSS 2.0 (channel/item) and Atom (entry) documents.
type rssDoc struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
	Entries []atomEntry `xml:"entry"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	Desc    string `xml:"description"`
	Content string `xml:"encoded"`
	PubDate string `xml:"pubDate"`
}

type atomEntry struct {
	Title string `xml:"title"`
	Link  struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
	Summary string `xml:"summary"`
	Content string `xml:"content"`
	Updated string `xml:"updated"`
}

func parseXMLFeed(body []byte) ([]models.ScrapedPost, error) {
	var doc rssDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse feed xml: %w", err)
	}
	var posts []models.ScrapedPost
	for _, it := range doc.Channel.Items {
		text := it.Content
		if text == "" {
			text = it.Desc
		}
		posts = append(posts, models.ScrapedPost{
			Title:       strings.TrimSpace(it.Title),
			URL:         strings.TrimSpace(it.Link),
			Body:        stripTags(text),
			PublishedAt: parseFeedTime(it.PubDate),
		})
		if len(posts) >= maxPosts {
			break
		}
	}
	for _, e := range doc.Entries {
		if len(posts) >= maxPosts {
			break
		}
		text := e.Content
		if text == "" {
			text = e.Summary
		}
		posts = append(posts, models.ScrapedPost{
			Title:       strings.TrimSpace(e.Title),
			URL:         strings.TrimSpace(e.Link.Href),
			Body:        stripTags(text),
			PublishedAt: parseFeedTime(e.Updated),
		})
	}
	return posts, nil
}

// jsonFeed is the subset of JSON Feed 1.1 we care about.
type jsonFeed struct {
	Items []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		ContentText   string `json:"content_text"`
		ContentHTML   string `json:"content_html"`
		DatePublished string `json:"date_published"`
	} `json:"items"`
}

func parseJSONFeed(body []byte) ([]models.ScrapedPost, error) {
	var feed jsonFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse json feed: %w", err)
	}
	var posts []models.ScrapedPost
	for _, it := range feed.Items {
		text := it.ContentText
		if text == "" {
			text = stripTags(it.ContentHTML)
		}
		posts = append(posts, models.ScrapedPost{
			Title:       strings.TrimSpace(it.Title),
			URL:         strings.TrimSpace(it.URL),
			Body:        text,
			PublishedAt: parseFeedTime(it.DatePublished),
		})
		if len(posts) >= maxPosts {
			break
		}
	}
	return posts, nil
}

var feedTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02",
}

func parseFeedTime(s string) int64 {
	s = strings.TrimSpace(s)
	for _, layout := range feedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix()
		}
	}
	return time.Now().Unix()
}

// stripTags removes markup so feed bodies embed and summarize cleanly.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
