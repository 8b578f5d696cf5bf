package mcp

import (
	"context"

	"insurelytics/internal/metrics"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

type MetricsInput struct {
	All bool `json:"all,omitempty" jsonschema:"include Go runtime and process metrics"`
}

type MetricsResult struct {
	Families []metrics.Family `json:"families"`
}

func (s *Server) handleGetMetrics(ctx context.Context, req *sdk.CallToolRequest, input MetricsInput) (*sdk.CallToolResult, MetricsResult, error) {
	prefix := metrics.Namespace + "_"
	if input.All {
		prefix = ""
	}

	families, err := metrics.Gather(s.gatherer, prefix)
	if err != nil {
		log.Error().Err(err).Msg("Failed to gather metrics")
		return nil, MetricsResult{}, err
	}
	log.Debug().Int("families", len(families)).Bool("all", input.All).Msg("Metrics gathered")
	return nil, MetricsResult{Families: families}, nil
}
