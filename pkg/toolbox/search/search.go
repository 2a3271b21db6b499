// Package search implements the Search tool on top of pluggable web search
// backends.
package search

import (
	"context"
	"fmt"
	"strings"
)

const (
	Name        = "Search"
	Description = "Useful when you need to answer questions about current events. You should ask targeted questions."
	argHelp     = "A targeted search query"

	NoResult          = "No good search result was found"
	DefaultMaxResults = 5
)

type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Results is what a backend found for a query. Answer holds a direct answer
// when the backend offers one (answer box, knowledge graph).
type Results struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer,omitempty"`
	Results []Result `json:"results,omitempty"`
}

// String renders the results as the text handed back to the model: the
// direct answer when there is one, the snippets otherwise.
func (r *Results) String() string {
	if r == nil {
		return NoResult
	}
	if a := strings.TrimSpace(r.Answer); a != "" {
		return a
	}
	var lines []string
	for _, res := range r.Results {
		snippet := strings.TrimSpace(res.Snippet)
		title := strings.TrimSpace(res.Title)
		switch {
		case snippet != "" && title != "":
			lines = append(lines, fmt.Sprintf("%s: %s", title, snippet))
		case snippet != "":
			lines = append(lines, snippet)
		case title != "":
			lines = append(lines, title)
		}
	}
	if len(lines) == 0 {
		return NoResult
	}
	return strings.Join(lines, "\n")
}

type Searcher interface {
	Search(ctx context.Context, query string) (*Results, error)
	Name() string
}

func truncate(results []Result, n int) []Result {
	if n > 0 && len(results) > n {
		return results[:n]
	}
	return results
}
