package targets

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeFile(t, "targets.yaml", `
targets:
  - id: agent-card
    name: Agent card
    endpoint: /.well-known/agent.json
  - id: message-send
    method: post
    endpoint: /
    headers:
      X-Trace: probe
    json:
      jsonrpc: "2.0"
      method: message/send
    retry_on_status: [429, 503]
    expect_status: 202
  - id: legacy
    endpoint: /legacy
    enabled: false
`)

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	require.Len(t, reg.All(), 3)

	card, ok := reg.ByID("agent-card")
	require.True(t, ok)
	assert.Equal(t, http.MethodGet, card.Method)
	assert.Equal(t, http.StatusOK, card.ExpectStatus)
	assert.Equal(t, "Agent card", card.DisplayName())

	send, ok := reg.ByID(" message-send ")
	require.True(t, ok)
	assert.Equal(t, http.MethodPost, send.Method)
	assert.Equal(t, 202, send.ExpectStatus)
	assert.Equal(t, []int{429, 503}, send.RetryOnStatus)
	assert.Equal(t, "message-send", send.DisplayName())
	assert.Equal(t, map[string]any{"jsonrpc": "2.0", "method": "message/send"}, send.JSON)

	enabled := reg.Enabled()
	require.Len(t, enabled, 2)
	assert.Equal(t, "agent-card", enabled[0].ID)
	assert.Equal(t, "message-send", enabled[1].ID)

	_, ok = reg.ByID("missing")
	assert.False(t, ok)
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeFile(t, "targets.json", `{"targets":[{"id":"health","endpoint":"/health","params":{"verbose":"1"}}]}`)

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	h, ok := reg.ByID("health")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"verbose": "1"}, h.Params)
	assert.True(t, h.IsEnabled())
}

func TestLoadRegistryErrors(t *testing.T) {
	tests := map[string]string{
		"duplicate id": `
targets:
  - id: dup
    endpoint: /a
  - id: dup
    endpoint: /b
`,
		"missing id": `
targets:
  - endpoint: /a
`,
		"missing endpoint": `
targets:
  - id: a
`,
		"form and json": `
targets:
  - id: a
    endpoint: /a
    form: {a: b}
    json: {c: d}
`,
		"bad expect status": `
targets:
  - id: a
    endpoint: /a
    expect_status: 700
`,
		"bad retry status": `
targets:
  - id: a
    endpoint: /a
    retry_on_status: [42]
`,
		"empty":     `targets: []`,
		"malformed": `targets: [`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadRegistry(writeFile(t, "targets.yaml", content))
			assert.Error(t, err)
		})
	}

	_, err := LoadRegistry("")
	assert.Error(t, err)
	_, err = LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
	_, err = ParseRegistry([]byte(`targets: []`), ".toml")
	assert.Error(t, err)
}

func TestParseRegistryWithoutExtension(t *testing.T) {
	reg, err := ParseRegistry([]byte(`{"targets":[{"id":"a","endpoint":"/a"}]}`), "")
	require.NoError(t, err)
	assert.Len(t, reg.All(), 1)
}

func TestTargetRequest(t *testing.T) {
	target := Target{
		Params:        map[string]string{"q": "1"},
		Form:          map[string]string{"name": "bindu"},
		Headers:       map[string]string{"X-Trace": "probe"},
		RetryOnStatus: []int{429},
	}

	req := target.Request()
	assert.Equal(t, url.Values{"q": {"1"}}, req.Params)
	assert.Equal(t, url.Values{"name": {"bindu"}}, req.Form)
	assert.Equal(t, map[string]string{"X-Trace": "probe"}, req.Headers)
	assert.Equal(t, []int{429}, req.RetryOnStatus)

	req.Headers["X-Trace"] = "changed"
	req.RetryOnStatus[0] = 500
	assert.Equal(t, "probe", target.Headers["X-Trace"])
	assert.Equal(t, 429, target.RetryOnStatus[0])

	bare := Target{}.Request()
	assert.Nil(t, bare.Params)
	assert.Nil(t, bare.Form)
	assert.Nil(t, bare.Headers)
	assert.Nil(t, bare.RetryOnStatus)
}

func TestNilRegistry(t *testing.T) {
	var reg *Registry
	assert.Nil(t, reg.All())
	assert.Nil(t, reg.Enabled())
	_, ok := reg.ByID("x")
	assert.False(t, ok)
}
