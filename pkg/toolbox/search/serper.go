package search

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

const SerperEndpoint = "https://google.serper.dev/search"

// Serper queries Google through the serper.dev API.
type Serper struct {
	httpBackend
	apiKey string
}

var _ Searcher = (*Serper)(nil)

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
}

type serperResponse struct {
	AnswerBox *struct {
		Answer             string   `json:"answer"`
		Snippet            string   `json:"snippet"`
		SnippetHighlighted []string `json:"snippetHighlighted"`
	} `json:"answerBox"`
	KnowledgeGraph *struct {
		Title       string `json:"title"`
		Type        string `json:"type"`
		Description string `json:"description"`
		Website     string `json:"website"`
	} `json:"knowledgeGraph"`
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func NewSerper(cfg Config) (*Serper, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("serper search needs an API key (set SERPER_API_KEY)")
	}
	b, err := newHTTPBackend(BackendSerper, SerperEndpoint, cfg)
	if err != nil {
		return nil, err
	}
	return &Serper{httpBackend: b, apiKey: cfg.APIKey}, nil
}

func (s *Serper) Name() string { return BackendSerper }

func (s *Serper) Search(ctx context.Context, query string) (*Results, error) {
	payload, err := json.Marshal(serperRequest{Q: query, Num: s.maxResults})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "could not build serper request")
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	body, err := s.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var resp serperResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "could not decode serper response")
	}

	ret := &Results{Query: query}
	if ab := resp.AnswerBox; ab != nil {
		switch {
		case ab.Answer != "":
			ret.Answer = ab.Answer
		case ab.Snippet != "":
			ret.Answer = strings.ReplaceAll(ab.Snippet, "\n", " ")
		case len(ab.SnippetHighlighted) > 0:
			ret.Answer = strings.Join(ab.SnippetHighlighted, ", ")
		}
	}
	if kg := resp.KnowledgeGraph; kg != nil && kg.Description != "" {
		title := kg.Title
		if kg.Type != "" {
			title += " (" + kg.Type + ")"
		}
		ret.Results = append(ret.Results, Result{Title: title, URL: kg.Website, Snippet: kg.Description})
	}
	for _, o := range resp.Organic {
		ret.Results = append(ret.Results, Result{Title: o.Title, URL: o.Link, Snippet: o.Snippet})
	}
	ret.Results = truncate(ret.Results, s.maxResults)
	return ret, nil
}
