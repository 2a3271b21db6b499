package security

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ErrOutboundURL marks every rejection made by ValidateOutboundURL.
var ErrOutboundURL = errors.New("outbound URL rejected")

// OutboundURLOptions configures outbound request URL validation.
type OutboundURLOptions struct {
	// AllowHTTP permits plain HTTP URLs. HTTPS is always allowed.
	AllowHTTP bool
	// AllowLocalNetworks permits loopback/private/link-local IP targets and localhost hostnames.
	AllowLocalNetworks bool
}

// DevOptions is used when a backend is pointed at a local test server.
func DevOptions() OutboundURLOptions {
	return OutboundURLOptions{AllowHTTP: true, AllowLocalNetworks: true}
}

func reject(format string, args ...interface{}) error {
	return errors.Wrapf(ErrOutboundURL, format, args...)
}

// ValidateOutboundURL checks a search backend or provider endpoint before the
// first request goes out. It rejects unsafe schemes and local-network targets
// unless explicitly allowed. No DNS lookups are made.
func ValidateOutboundURL(rawURL string, opts OutboundURLOptions) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrapf(ErrOutboundURL, "invalid URL: %v", err)
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if !opts.AllowHTTP {
			return reject("http scheme is not allowed for %s", parsed.Host)
		}
	default:
		return reject("unsupported URL scheme %q", parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return reject("URL host is required")
	}

	if !opts.AllowLocalNetworks {
		if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
			return reject("local hostname %q is not allowed", host)
		}
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if addr.Zone() != "" && !opts.AllowLocalNetworks {
			return reject("zoned IP address %q is not allowed", host)
		}
		addr = addr.Unmap()

		if addr.IsUnspecified() || addr.IsMulticast() {
			return reject("disallowed IP address %q", host)
		}

		if !opts.AllowLocalNetworks {
			if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
				return reject("local network IP %q is not allowed", host)
			}
		}
	}

	return nil
}
