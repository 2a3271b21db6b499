package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

const KagiEndpoint = "https://kagi.com/api/v0/search"

// Kagi queries the Kagi Search API.
type Kagi struct {
	httpBackend
	token string
}

var _ Searcher = (*Kagi)(nil)

// kagiSearchObject is t=0 for a search result and t=1 for related searches.
type kagiSearchObject struct {
	T       int      `json:"t"`
	URL     string   `json:"url"`
	Title   string   `json:"title"`
	Snippet string   `json:"snippet"`
	List    []string `json:"list"`
}

type kagiResponse struct {
	Meta struct {
		ID string `json:"id"`
		MS int    `json:"ms"`
	} `json:"meta"`
	Data  []kagiSearchObject `json:"data"`
	Error []struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"error"`
}

func NewKagi(cfg Config) (*Kagi, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("kagi search needs an API key (set KAGI_API_KEY)")
	}
	b, err := newHTTPBackend(BackendKagi, KagiEndpoint, cfg)
	if err != nil {
		return nil, err
	}
	return &Kagi{httpBackend: b, token: cfg.APIKey}, nil
}

func (k *Kagi) Name() string { return BackendKagi }

func (k *Kagi) Search(ctx context.Context, query string) (*Results, error) {
	u, err := url.Parse(k.endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid kagi endpoint")
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(k.maxResults))
	u.RawQuery = q.Encode()

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not build kagi request")
	}
	req.Header.Set("Authorization", "Bot "+k.token)

	body, err := k.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var resp kagiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "could not decode kagi response")
	}
	if len(resp.Error) > 0 {
		return nil, errors.Errorf("kagi search: %s", resp.Error[0].Msg)
	}

	ret := &Results{Query: query}
	for _, d := range resp.Data {
		if d.T != 0 {
			continue
		}
		ret.Results = append(ret.Results, Result{Title: d.Title, URL: d.URL, Snippet: d.Snippet})
	}
	ret.Results = truncate(ret.Results, k.maxResults)
	return ret, nil
}
