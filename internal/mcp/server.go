package mcp

import (
	"context"

	"insurelytics/internal/config"
	"insurelytics/internal/ingest"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "insurelytics"

// Server exposes the dashboard as MCP tools.
type Server struct {
	dashboard           *ingest.Dashboard
	gatherer            prometheus.Gatherer
	enableMermaidCharts bool

	server *sdk.Server
}

// NewServer creates a new MCP server and registers every tool. Metrics are
// read from gatherer, or from the default gatherer when it is nil.
func NewServer(cfg *config.AppConfig, dashboard *ingest.Dashboard, gatherer prometheus.Gatherer, version string) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		dashboard: dashboard,
		gatherer:  gatherer,
		server:    sdk.NewServer(&sdk.Implementation{Name: ServerName, Version: version}, nil),
	}
	if cfg != nil {
		s.enableMermaidCharts = cfg.EnableMermaidCharts
	}
	s.registerTools()
	return s
}

// Run serves the tools over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Bool("charts", s.enableMermaidCharts).Msg("MCP server listening on stdio")
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Connect attaches the server to an arbitrary transport.
func (s *Server) Connect(ctx context.Context, t sdk.Transport) (*sdk.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}
