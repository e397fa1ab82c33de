package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec,noctx // local test server
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).AddActions("copy", 3)

	s, err := NewServer("127.0.0.1:0", "", reg)
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	code, body := get(t, "http://"+s.Addr()+DefaultPath)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `twm_actions_total{action="copy"} 3`)

	code, body = get(t, "http://"+s.Addr()+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)
}

func TestNewServerBindError(t *testing.T) {
	s, err := NewServer("127.0.0.1:0", "", prom.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.ln.Close() })

	_, err = NewServer(s.Addr(), "", prom.NewRegistry())
	require.Error(t, err)
}
