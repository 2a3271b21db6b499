package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(backend, url string) Config {
	return Config{
		Backend:            backend,
		APIKey:             "key-123",
		BaseURL:            url,
		AllowLocalNetworks: true,
		CacheSize:          -1,
	}
}

func TestResults_String(t *testing.T) {
	var nilResults *Results
	assert.Equal(t, NoResult, nilResults.String())
	assert.Equal(t, NoResult, (&Results{Query: "q"}).String())
	assert.Equal(t, "42", (&Results{Answer: " 42 ", Results: []Result{{Title: "x"}}}).String())
	assert.Equal(t, "A: one\nB: two\nonly snippet", (&Results{Results: []Result{
		{Title: "A", Snippet: "one"},
		{Title: "B", Snippet: "two"},
		{Snippet: "only snippet"},
	}}).String())
}

func TestSerper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key-123", r.Header.Get("X-API-KEY"))
		var body serperRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "who won the 2022 world cup", body.Q)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"answerBox": {"answer": "Argentina"},
			"organic": [
				{"title": "2022 FIFA World Cup", "link": "https://en.wikipedia.org/wiki/2022_FIFA_World_Cup", "snippet": "Argentina won"}
			]
		}`))
	}))
	defer srv.Close()

	s, err := NewSerper(testConfig(BackendSerper, srv.URL))
	require.NoError(t, err)

	res, err := s.Search(context.Background(), "who won the 2022 world cup")
	require.NoError(t, err)
	assert.Equal(t, "Argentina", res.Answer)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "https://en.wikipedia.org/wiki/2022_FIFA_World_Cup", res.Results[0].URL)
	assert.Equal(t, "Argentina", res.String())
}

func TestSerper_KnowledgeGraphAndSnippets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"knowledgeGraph": {"title": "Go", "type": "Programming language", "description": "Go is a language."},
			"organic": [{"title": "The Go Programming Language", "link": "https://go.dev", "snippet": "Build simple software."}]
		}`))
	}))
	defer srv.Close()

	s, err := NewSerper(testConfig(BackendSerper, srv.URL))
	require.NoError(t, err)
	res, err := s.Search(context.Background(), "golang")
	require.NoError(t, err)
	assert.Equal(t, "Go (Programming language): Go is a language.\nThe Go Programming Language: Build simple software.", res.String())
}

func TestSerper_RequiresKey(t *testing.T) {
	cfg := testConfig(BackendSerper, "")
	cfg.APIKey = ""
	_, err := NewSerper(cfg)
	require.Error(t, err)
}

func TestKagi(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bot key-123", r.Header.Get("Authorization"))
		assert.Equal(t, "weather paris", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{
			"meta": {"id": "abc", "ms": 120},
			"data": [
				{"t": 0, "url": "https://weather.example/paris", "title": "Paris forecast", "snippet": "Sunny, 24C"},
				{"t": 1, "list": ["paris weather tomorrow"]}
			]
		}`))
	}))
	defer srv.Close()

	k, err := NewKagi(testConfig(BackendKagi, srv.URL))
	require.NoError(t, err)
	res, err := k.Search(context.Background(), "weather paris")
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "Paris forecast: Sunny, 24C", res.String())
}

const ddgPage = `<html><body>
<div class="result results_links result--ad">
  <a class="result__a" href="https://ads.example">Ad</a>
</div>
<div class="result results_links">
  <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F&amp;rut=x">The Go   Programming Language</a></h2>
  <a class="result__snippet">Go is an open source
     programming language.</a>
</div>
<div class="result results_links">
  <h2><a class="result__a" href="https://pkg.go.dev/">Go Packages</a></h2>
  <a class="result__snippet">Discover packages.</a>
</div>
</body></html>`

func TestDuckDuckGo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "golang", r.PostForm.Get("q"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(ddgPage))
	}))
	defer srv.Close()

	d, err := NewDuckDuckGo(testConfig(BackendDuckDuckGo, srv.URL))
	require.NoError(t, err)
	res, err := d.Search(context.Background(), "golang")
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "The Go   Programming Language", res.Results[0].Title)
	assert.Equal(t, "https://go.dev/", res.Results[0].URL)
	assert.Equal(t, "Go is an open source programming language.", res.Results[0].Snippet)
	assert.Equal(t, "https://pkg.go.dev/", res.Results[1].URL)
}

func TestTransientErrors(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		s, err := NewSerper(testConfig(BackendSerper, srv.URL))
		require.NoError(t, err)

		_, err = s.Search(context.Background(), "q")
		srv.Close()

		var te *TransientError
		require.True(t, errors.As(err, &te), "status %d", code)
		assert.Equal(t, code, te.StatusCode)
		assert.ErrorIs(t, err, ErrTransient)
	}
}

func TestPermanentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s, err := NewSerper(testConfig(BackendSerper, srv.URL))
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "q")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTransient))
}

func TestNetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	d, err := NewDuckDuckGo(testConfig(BackendDuckDuckGo, url))
	require.NoError(t, err)
	_, err = d.Search(context.Background(), "q")
	assert.ErrorIs(t, err, ErrTransient)
}

func TestEndpointValidation(t *testing.T) {
	cfg := testConfig(BackendSerper, "http://127.0.0.1:9/search")
	cfg.AllowLocalNetworks = false
	_, err := NewSerper(cfg)
	require.Error(t, err)

	_, err = New(Config{Backend: "bing"})
	require.Error(t, err)
}

type countingSearcher struct {
	calls atomic.Int32
	fail  bool
}

func (c *countingSearcher) Name() string { return "counting" }

func (c *countingSearcher) Search(ctx context.Context, query string) (*Results, error) {
	c.calls.Add(1)
	if c.fail {
		return nil, &TransientError{Backend: "counting", Cause: errors.New("down")}
	}
	return &Results{Query: query, Answer: "answer for " + query}, nil
}

func TestCachingSearcher(t *testing.T) {
	inner := &countingSearcher{}
	c := NewCachingSearcher(inner, WithMaxSize(2))
	ctx := context.Background()

	r1, err := c.Search(ctx, "Paris  weather")
	require.NoError(t, err)
	r2, err := c.Search(ctx, "paris weather")
	require.NoError(t, err)
	assert.Same(t, r1, r2)
	assert.EqualValues(t, 1, inner.calls.Load())

	_, _ = c.Search(ctx, "b")
	_, _ = c.Search(ctx, "c")
	assert.Equal(t, 2, c.Size())

	_, _ = c.Search(ctx, "paris weather")
	assert.EqualValues(t, 4, inner.calls.Load(), "evicted entry is fetched again")

	c.ClearCache()
	assert.Equal(t, 0, c.Size())
}

func TestCachingSearcher_DoesNotCacheErrors(t *testing.T) {
	inner := &countingSearcher{fail: true}
	c := NewCachingSearcher(inner)
	_, err := c.Search(context.Background(), "q")
	require.Error(t, err)
	_, err = c.Search(context.Background(), "q")
	require.Error(t, err)
	assert.EqualValues(t, 2, inner.calls.Load())
	assert.Equal(t, 0, c.Size())
}

func TestCachingSearcher_ExpiresAfterTTL(t *testing.T) {
	inner := &countingSearcher{}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewCachingSearcher(inner, WithTTL(time.Minute), withClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := c.Search(ctx, "q")
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	_, err = c.Search(ctx, "q")
	require.NoError(t, err)
	assert.EqualValues(t, 1, inner.calls.Load())

	now = now.Add(time.Minute)
	_, err = c.Search(ctx, "q")
	require.NoError(t, err)
	assert.EqualValues(t, 2, inner.calls.Load(), "stale entry is fetched again")
	assert.Equal(t, 1, c.Size())
}

func TestTool(t *testing.T) {
	def := Tool(&countingSearcher{})
	assert.Equal(t, "Search", def.Name)
	assert.Equal(t, Description, def.Description)

	out, err := def.Func(context.Background(), "  current weather  ")
	require.NoError(t, err)
	assert.Equal(t, "answer for current weather", out)

	_, err = def.Func(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestNew_WrapsInCache(t *testing.T) {
	cfg := testConfig(BackendDuckDuckGo, "http://127.0.0.1:1/")
	cfg.CacheSize = 0
	s, err := New(cfg)
	require.NoError(t, err)
	_, ok := s.(*CachingSearcher)
	assert.True(t, ok)
	assert.Equal(t, BackendDuckDuckGo, s.Name())
}
