package settings

import (
	"net/http"
	"time"

	"github.com/huandu/go-clone"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeout   = 60 * time.Second
	DefaultUserAgent = "toolchat/1.0"
)

type ClientSettings struct {
	Timeout    *time.Duration `yaml:"timeout,omitempty"`
	UserAgent  *string        `yaml:"user_agent,omitempty"`
	HTTPClient *http.Client   `yaml:"-" json:"-"`
}

// UnmarshalYAML reads timeout as a number of seconds.
func (cs *ClientSettings) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		Timeout   *int    `yaml:"timeout,omitempty"`
		UserAgent *string `yaml:"user_agent,omitempty"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	if aux.Timeout != nil {
		t := time.Duration(*aux.Timeout) * time.Second
		cs.Timeout = &t
	}
	if aux.UserAgent != nil {
		cs.UserAgent = aux.UserAgent
	}
	return nil
}

func (cs *ClientSettings) Clone() *ClientSettings {
	return clone.Clone(cs).(*ClientSettings)
}

func NewClientSettings() *ClientSettings {
	defaultTimeout := DefaultTimeout
	ua := DefaultUserAgent
	return &ClientSettings{
		Timeout:   &defaultTimeout,
		UserAgent: &ua,
	}
}

// Client returns the configured HTTP client, building one from Timeout and
// UserAgent when none was injected.
func (cs *ClientSettings) Client() *http.Client {
	if cs == nil {
		return &http.Client{Timeout: DefaultTimeout}
	}
	if cs.HTTPClient != nil {
		return cs.HTTPClient
	}
	timeout := DefaultTimeout
	if cs.Timeout != nil {
		timeout = *cs.Timeout
	}
	c := &http.Client{Timeout: timeout}
	if cs.UserAgent != nil && *cs.UserAgent != "" {
		c.Transport = &userAgentTransport{agent: *cs.UserAgent, next: http.DefaultTransport}
	}
	return c
}

// userAgentTransport overrides the User-Agent the SDKs set on every request.
type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.next.RoundTrip(req)
}
