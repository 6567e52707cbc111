package search

import (
	"context"
	"strings"
)

const (
	DefaultLimit = 4

	// QuerySuffix narrows the query to listing pages
	QuerySuffix = " real estate listing features"
	// Delimiter separates the user text from the appended results
	Delimiter = "\n\n[Web search results]\n"
)

// Augmenter appends search results to messages naming addresses.
type Augmenter struct {
	Searcher Searcher
	Limit    int
}

// NewAugmenter ...
func NewAugmenter(s Searcher, limit int) *Augmenter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Augmenter{Searcher: s, Limit: limit}
}

// Augment returns text followed by the formatted results and true, or text
// unchanged and false when the message does not qualify or the search fails.
func (a *Augmenter) Augment(ctx context.Context, text string) (string, bool) {
	if a == nil || a.Searcher == nil || !ShouldSearch(text) {
		return text, false
	}
	results, err := a.Searcher.Search(ctx, text+QuerySuffix, a.Limit)
	if err != nil {
		logger().Infow("search fail, send unaugmented", "err", err)
		return text, false
	}
	if len(results) == 0 {
		return text, false
	}
	if len(results) > a.Limit {
		results = results[:a.Limit]
	}
	return text + Delimiter + results.Format(), true
}

// Format renders each result as "- title: body", one per line.
func (z Results) Format() string {
	var sb strings.Builder
	for i, r := range z {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(r.Title)
		sb.WriteString(": ")
		sb.WriteString(r.Body)
	}
	return sb.String()
}
