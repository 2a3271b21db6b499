package security

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutboundURL(t *testing.T) {
	cases := []struct {
		name string
		url  string
		opts OutboundURLOptions
		ok   bool
	}{
		{"https public", "https://google.serper.dev/search", OutboundURLOptions{}, true},
		{"http rejected", "http://html.duckduckgo.com/html/", OutboundURLOptions{}, false},
		{"http allowed", "http://html.duckduckgo.com/html/", OutboundURLOptions{AllowHTTP: true}, true},
		{"ftp", "ftp://example.com/", OutboundURLOptions{AllowHTTP: true}, false},
		{"no host", "https:///search", OutboundURLOptions{}, false},
		{"localhost", "https://localhost:8080/", OutboundURLOptions{}, false},
		{"loopback ip", "https://127.0.0.1/", OutboundURLOptions{}, false},
		{"private ip", "https://10.1.2.3/", OutboundURLOptions{}, false},
		{"dev server", "http://127.0.0.1:43123/search", DevOptions(), true},
		{"unspecified", "https://0.0.0.0/", DevOptions(), false},
		{"zoned ipv6 by default", "https://[fe80::1%25eth0]/", OutboundURLOptions{}, false},
		{"zoned ipv6 with local networks", "https://[fe80::1%25eth0]/", OutboundURLOptions{AllowLocalNetworks: true}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateOutboundURL(tc.url, tc.opts)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrOutboundURL))
		})
	}
}
