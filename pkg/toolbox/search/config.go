package search

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	BackendSerper     = "serper"
	BackendKagi       = "kagi"
	BackendDuckDuckGo = "duckduckgo"

	DefaultTimeout   = 20 * time.Second
	DefaultCacheSize = 128
	DefaultCacheTTL  = 10 * time.Minute
	UserAgent        = "toolchat/1.0"
)

func Backends() []string {
	return []string{BackendSerper, BackendKagi, BackendDuckDuckGo}
}

type Config struct {
	Backend string
	APIKey  string
	// BaseURL replaces the backend's public endpoint.
	BaseURL            string
	MaxResults         int
	HTTPClient         *http.Client
	AllowLocalNetworks bool
	// CacheSize bounds the per-session result cache. Zero uses the default,
	// a negative value disables caching.
	CacheSize int
	// CacheTTL expires cached results. Zero keeps them until evicted.
	CacheTTL time.Duration
}

// New builds the configured backend wrapped in a result cache.
func New(cfg Config) (Searcher, error) {
	var s Searcher
	var err error
	switch cfg.Backend {
	case BackendSerper, "":
		s, err = NewSerper(cfg)
	case BackendKagi:
		s, err = NewKagi(cfg)
	case BackendDuckDuckGo:
		s, err = NewDuckDuckGo(cfg)
	default:
		return nil, errors.Errorf("unknown search backend %q (expected one of %v)", cfg.Backend, Backends())
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize < 0 {
		return s, nil
	}
	size := cfg.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	return NewCachingSearcher(s, WithMaxSize(size), WithTTL(cfg.CacheTTL)), nil
}
