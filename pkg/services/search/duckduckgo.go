package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultURL = "https://html.duckduckgo.com/html/"

	searchTimeout = time.Second * 15
	userAgent     = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
)

var ErrBadStatus = errors.New("unexpected search status")

// Result is one search hit.
type Result struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Results ...
type Results []Result

// Searcher runs a text query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (Results, error)
}

// DuckDuckGo scrapes the html endpoint of DuckDuckGo, it needs no key.
type DuckDuckGo struct {
	endpoint   string
	httpClient *http.Client
	conv       *md.Converter
}

var _ Searcher = (*DuckDuckGo)(nil)

// NewDuckDuckGo ...
func NewDuckDuckGo(endpoint string) *DuckDuckGo {
	if len(endpoint) == 0 {
		endpoint = DefaultURL
	}
	return &DuckDuckGo{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: searchTimeout},
		conv:       md.NewConverter("", true, nil),
	}
}

func (s *DuckDuckGo) Search(ctx context.Context, query string, limit int) (Results, error) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	var out Results
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		if sel.HasClass("result--ad") {
			return true
		}
		title := squeeze(sel.Find(".result__a").First().Text())
		if len(title) == 0 {
			return true
		}
		out = append(out, Result{Title: title, Body: s.snippet(sel.Find(".result__snippet").First())})
		return true
	})
	logger().Debugw("searched", "query", query, "results", len(out))
	return out, nil
}

// snippet keeps the emphasis of the snippet html as markdown.
func (s *DuckDuckGo) snippet(sel *goquery.Selection) string {
	html, err := sel.Html()
	if err != nil || len(html) == 0 {
		return squeeze(sel.Text())
	}
	text, err := s.conv.ConvertString(html)
	if err != nil {
		return squeeze(sel.Text())
	}
	return squeeze(text)
}

func squeeze(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
