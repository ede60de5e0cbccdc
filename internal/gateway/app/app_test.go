package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designagent/internal/config"
)

func fakeConfig(t *testing.T) *config.Config {
	t.Helper()
	v := config.NewViper("")
	v.Set("llm.provider", "fake")
	v.Set("server.run_log_dir", t.TempDir())
	v.Set("export.root", t.TempDir())
	v.Set("store.backend", "sqlite")
	v.Set("store.dsn", t.TempDir()+"/runs.db")
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestNewServesDesignRuns(t *testing.T) {
	cfg := fakeConfig(t)
	a, err := New(t.Context(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	body := []byte(`{"purpose":"Research copilot","audience":"PMs","tone":"calm","subject":"knowledge work","out_dir":"run-a"}`)
	resp, err := http.Post(srv.URL+"/api/design/sync", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		RunID  string `json:"run_id"`
		OutDir string `json:"out_dir"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out.OutDir, "run-a")

	root, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer root.Body.Close()
	var info map[string]string
	require.NoError(t, json.NewDecoder(root.Body).Decode(&info))
	assert.Equal(t, cfg.Server.Title, info["message"])
	assert.Equal(t, Version, info["version"])

	m, err := http.Get(srv.URL + cfg.Metrics.Path)
	require.NoError(t, err)
	defer m.Body.Close()
	assert.Equal(t, http.StatusOK, m.StatusCode)
}

func TestNewRejectsBadBackend(t *testing.T) {
	cfg := fakeConfig(t)
	cfg.Export.Backend = "ftp"
	_, err := New(t.Context(), cfg, nil)
	require.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := fakeConfig(t)
	cfg.Server.ShutdownTimeout = time.Second
	a, err := New(t.Context(), cfg, nil)
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, l) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + l.Addr().String() + "/")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
