package search

import (
	"context"
	"strings"

	"github.com/go-go-golems/toolchat/pkg/inference/tools"
	"github.com/rs/zerolog/log"
)

// Tool returns the Search tool definition backed by s.
func Tool(s Searcher) tools.Definition {
	return tools.NewDefinition(Name, Description, argHelp, func(ctx context.Context, query string) (string, error) {
		query = strings.TrimSpace(query)
		if query == "" {
			return "", ErrEmptyQuery
		}
		log.Debug().Str("backend", s.Name()).Str("query", query).Msg("searching")
		results, err := s.Search(ctx, query)
		if err != nil {
			return "", err
		}
		return results.String(), nil
	})
}
