package search

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

const DuckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the key-less HTML results page.
type DuckDuckGo struct {
	httpBackend
}

var _ Searcher = (*DuckDuckGo)(nil)

func NewDuckDuckGo(cfg Config) (*DuckDuckGo, error) {
	b, err := newHTTPBackend(BackendDuckDuckGo, DuckDuckGoEndpoint, cfg)
	if err != nil {
		return nil, err
	}
	return &DuckDuckGo{httpBackend: b}, nil
}

func (d *DuckDuckGo) Name() string { return BackendDuckDuckGo }

func (d *DuckDuckGo) Search(ctx context.Context, query string) (*Results, error) {
	form := url.Values{}
	form.Set("q", query)
	req, err := http.NewRequest(http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "could not build duckduckgo request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := d.do(ctx, req)
	if err != nil {
		return nil, err
	}

	results, err := parseDuckDuckGoHTML(body)
	if err != nil {
		return nil, err
	}
	return &Results{Query: query, Results: truncate(results, d.maxResults)}, nil
}

func parseDuckDuckGoHTML(body []byte) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "could not parse duckduckgo results")
	}

	var results []Result
	doc.Find("div.result").Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("result--ad") {
			return
		}
		link := s.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return
		}
		href, _ := link.Attr("href")
		results = append(results, Result{
			Title:   title,
			URL:     resolveDuckDuckGoLink(href),
			Snippet: strings.Join(strings.Fields(s.Find(".result__snippet").First().Text()), " "),
		})
	})
	return results, nil
}

// resolveDuckDuckGoLink unwraps the redirect links of the form
// //duckduckgo.com/l/?uddg=<target>.
func resolveDuckDuckGoLink(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
