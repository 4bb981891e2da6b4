package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/marginalia/internal/logger"
)

// Version is reported to clients during the handshake.
const Version = "0.1.0"

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Server exposes the library to MCP clients as tools and resources.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer registers a tool for every service present in ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports: ports,
		server: mcp.NewServer(
			&mcp.Implementation{Name: "marginalia", Version: Version},
			&mcp.ServerOptions{Instructions: instructions(ports)},
		),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// instructions tells the client what the registered tools are for.
func instructions(p *Ports) string {
	lines := []string{
		"Marginalia holds a library of imported documents split into excerpts.",
		"Use search for passages by meaning and search_passages for exact words.",
	}
	if p.Document != nil {
		lines = append(lines, "list_documents gives the ids other tools accept.")
	}
	if p.Chat != nil {
		lines = append(lines, "ask answers from retrieved excerpts; compare contrasts documents on one question.")
	}
	if p.Analysis != nil {
		lines = append(lines, "detect_chapters lists chapters; ask_chapter answers from a whole chapter.")
	}
	return strings.Join(lines, "\n")
}

// Run serves one client over stdin and stdout until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP listens on addr and serves until ctx ends.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve answers streamable HTTP requests on ln until ctx ends, then drains
// open requests. GET /healthz reports liveness.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.server }, nil))

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	logger.Info("MCP server listening on %s", ln.Addr())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
