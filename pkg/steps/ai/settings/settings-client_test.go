package settings

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestClientSettings_SendsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	cs := NewClientSettings()
	resp, err := cs.Client().Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, DefaultUserAgent, got)

	ua := "my-agent/2.0"
	cs.UserAgent = &ua
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "sdk/1.0")
	resp, err = cs.Client().Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "my-agent/2.0", got)
	assert.Equal(t, "sdk/1.0", req.Header.Get("User-Agent"), "caller request is not mutated")
}

func TestClientSettings_InjectedClientWins(t *testing.T) {
	injected := &http.Client{Timeout: time.Second}
	cs := NewClientSettings()
	cs.HTTPClient = injected
	assert.Same(t, injected, cs.Client())

	var nilSettings *ClientSettings
	assert.Equal(t, DefaultTimeout, nilSettings.Client().Timeout)
}

func TestClientSettings_UnmarshalYAML(t *testing.T) {
	cs := NewClientSettings()
	require.NoError(t, yaml.NewDecoder(strings.NewReader("timeout: 12\nuser_agent: bot/1\n")).Decode(cs))
	assert.Equal(t, 12*time.Second, *cs.Timeout)
	assert.Equal(t, "bot/1", *cs.UserAgent)
	assert.Equal(t, 12*time.Second, cs.Client().Timeout)
}
