package mcp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/foomo/confluence-export/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const DefaultEndpoint = "/mcp"

// httpRequestKey is a custom context key for storing the original HTTP request
type httpRequestKey struct{}

// withHTTPRequest adds the original HTTP request to the context
func withHTTPRequest(ctx context.Context, req *http.Request) context.Context {
	return context.WithValue(ctx, httpRequestKey{}, req)
}

// httpRequestFromContext extracts the original HTTP request from the context
func httpRequestFromContext(ctx context.Context) (*http.Request, bool) {
	req, ok := ctx.Value(httpRequestKey{}).(*http.Request)
	return req, ok
}

func httpContextFunc(ctx context.Context, r *http.Request) context.Context {
	return withHTTPRequest(ctx, r)
}

// NewMcpHTTPServer creates the streamable MCP endpoint
func NewMcpHTTPServer(s *server.MCPServer, endpoint string) *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s,
		server.WithEndpointPath(endpoint),
		server.WithHTTPContextFunc(httpContextFunc),
	)
}

// NewRouter mounts the MCP endpoint, the SSE export stream, the progress feed
// and the health check.
func NewRouter(l *zap.Logger, s *server.MCPServer, svc service.Service, hub *Hub, endpoint string, defaults Defaults) http.Handler {
	if l == nil {
		l = zap.NewNop()
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if hub == nil {
		hub = NewHub(l, DefaultHubConfig())
	}
	stream := NewExportStream(l, svc, defaults, hub)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok", "version": Version})
	})

	r.Handle(endpoint, NewMcpHTTPServer(s, endpoint))
	r.Route(endpoint+"/sse", func(r chi.Router) {
		r.Get("/", hub.HandleSSE)
		r.Post("/export", stream.HandleExportSSE)
		r.Get("/clients", func(w http.ResponseWriter, r *http.Request) {
			clients := hub.Clients()
			writeJSON(w, map[string]any{
				"connectedClients": len(clients),
				"clients":          clients,
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_ = json.NewEncoder(w).Encode(v)
}
