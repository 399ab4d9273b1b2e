package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/dealdesk/internal/api"
)

func TestNewHTTPServer_RequiresHandler(t *testing.T) {
	_, err := NewHTTPServer(HTTPServerConfig{Addr: ":0"})
	require.Error(t, err)
}

func TestHTTPServer_Routes(t *testing.T) {
	sc := newTestContext(t, Config{})
	health := NewHealthChecker(sc)

	srv, err := NewHTTPServer(HTTPServerConfig{
		Addr:      ":8080",
		MCPServer: mcpserver.NewMCPServer("dealdesk", "test", mcpserver.WithToolCapabilities(true)),
		API:       api.NewAPI(sc.Scheduler(), api.WithAccessLog(nil)).Handler(),
		Health:    health,
	})
	require.NoError(t, err)
	assert.Equal(t, ":8080", srv.Addr())

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/readyz")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("api", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get(api.RequestIDHeader))
	})

	t.Run("mcp initialize", func(t *testing.T) {
		payload := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`
		req, err := http.NewRequest(http.MethodPost, ts.URL+MCPEndpointPath, strings.NewReader(payload))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json, text/event-stream")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Result struct {
				ServerInfo struct {
					Name string `json:"name"`
				} `json:"serverInfo"`
			} `json:"result"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "dealdesk", body.Result.ServerInfo.Name)
	})
}

func TestHTTPServer_ShutdownMarksNotReady(t *testing.T) {
	health := NewHealthChecker(nil)
	srv, err := NewHTTPServer(HTTPServerConfig{
		Addr:   "127.0.0.1:0",
		API:    http.NotFoundHandler(),
		Health: health,
	})
	require.NoError(t, err)

	require.NoError(t, srv.Shutdown(t.Context()))
	assert.False(t, health.IsReady())
}
