package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"insurelytics/internal/ingest"
	"insurelytics/internal/jurisdiction"
	"insurelytics/internal/stats"
	"insurelytics/internal/visuals"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ErrNoSnapshot is returned by read tools before the first successful ingestion.
var ErrNoSnapshot = errors.New("no workbook has been ingested yet; call ingest_workbook first")

type noInput struct{}

// IngestInput names the workbook to load.
type IngestInput struct {
	Path string `json:"path" jsonschema:"path to the .xlsx or .xls export (required)"`
}

// IngestResult reports a successful ingestion.
type IngestResult struct {
	Report ingest.Report    `json:"report"`
	KPI    stats.KPISummary `json:"kpi"`

	VisualComplexityPie string `json:"visual_complexity_pie,omitempty"`
	VisualDensityBar    string `json:"visual_density_bar,omitempty"`
}

// KPIResult carries the portfolio KPIs of the published snapshot.
type KPIResult struct {
	SnapshotID string           `json:"snapshot_id"`
	Source     string           `json:"source"`
	IngestedAt string           `json:"ingested_at"`
	KPI        stats.KPISummary `json:"kpi"`

	VisualComplexityPie string `json:"visual_complexity_pie,omitempty"`
	VisualDensityBar    string `json:"visual_density_bar,omitempty"`
}

// StateRecordInput identifies a jurisdiction.
type StateRecordInput struct {
	Code string `json:"code" jsonschema:"two-letter jurisdiction code, e.g. TX (required)"`
}

// StateRecordResult is a normalized record plus its timeline placements.
type StateRecordResult struct {
	Record     jurisdiction.StateRecord `json:"record"`
	Placements []stats.TimelineEntry    `json:"placements"`
}

// TimelineInput selects a line of business.
type TimelineInput struct {
	LOB string `json:"lob,omitempty" jsonschema:"Auto, Home/Dwelling or Umbrella; defaults to the active line of business"`
}

// TimelineResult is the year by quarter rollout grid.
type TimelineResult struct {
	LOB       jurisdiction.LOB `json:"lob"`
	Scheduled int              `json:"scheduled"`
	Years     []stats.YearView `json:"years"`

	VisualRollout string `json:"visual_rollout,omitempty"`
}

func (s *Server) handleIngestWorkbook(ctx context.Context, _ *sdk.CallToolRequest, in IngestInput) (*sdk.CallToolResult, IngestResult, error) {
	path := strings.TrimSpace(in.Path)
	if path == "" {
		return nil, IngestResult{}, errors.New("path is required")
	}

	snap, report, err := s.dashboard.UploadFile(ctx, path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Workbook rejected")
		return nil, IngestResult{}, fmt.Errorf("ingest %s: %w", report.Source, err)
	}

	res := IngestResult{Report: report, KPI: snap.KPI}
	if s.enableMermaidCharts {
		res.VisualComplexityPie = visuals.GenerateComplexityPie(snap.KPI)
		res.VisualDensityBar = visuals.GenerateDensityChart(snap.KPI)
	}
	return nil, res, nil
}

func (s *Server) handleGetKPISummary(_ context.Context, _ *sdk.CallToolRequest, _ noInput) (*sdk.CallToolResult, KPIResult, error) {
	snap := s.dashboard.Snapshot()
	if snap == nil {
		return nil, KPIResult{}, ErrNoSnapshot
	}

	res := KPIResult{
		SnapshotID: snap.ID,
		Source:     snap.Source,
		IngestedAt: snap.IngestedAt.Format(time.RFC3339),
		KPI:        snap.KPI,
	}
	if s.enableMermaidCharts {
		res.VisualComplexityPie = visuals.GenerateComplexityPie(snap.KPI)
		res.VisualDensityBar = visuals.GenerateDensityChart(snap.KPI)
	}
	return nil, res, nil
}

func (s *Server) handleGetStateRecord(_ context.Context, _ *sdk.CallToolRequest, in StateRecordInput) (*sdk.CallToolResult, StateRecordResult, error) {
	snap := s.dashboard.Snapshot()
	if snap == nil {
		return nil, StateRecordResult{}, ErrNoSnapshot
	}

	code := normalizeCode(in.Code)
	rec, ok := snap.Record(code)
	if !ok {
		return nil, StateRecordResult{}, fmt.Errorf("no record for jurisdiction %q in %s", code, snap.Source)
	}

	res := StateRecordResult{Record: rec, Placements: []stats.TimelineEntry{}}
	for _, lob := range jurisdiction.AllLOBs {
		if entry, ok := snap.Timeline[lob].Placement(code); ok {
			res.Placements = append(res.Placements, entry)
		}
	}
	return nil, res, nil
}

func (s *Server) handleGetTimeline(_ context.Context, _ *sdk.CallToolRequest, in TimelineInput) (*sdk.CallToolResult, TimelineResult, error) {
	lob, err := s.resolveLOB(in.LOB)
	if err != nil {
		return nil, TimelineResult{}, err
	}

	tl := s.dashboard.Timeline(lob)
	res := TimelineResult{
		LOB:       lob,
		Scheduled: tl.Len(),
		Years:     tl.View(),
	}
	if s.enableMermaidCharts {
		res.VisualRollout = visuals.GenerateRolloutChart(tl)
	}
	return nil, res, nil
}

func (s *Server) resolveLOB(raw string) (jurisdiction.LOB, error) {
	if strings.TrimSpace(raw) == "" {
		return s.dashboard.LOB(), nil
	}
	return jurisdiction.ParseLOB(raw)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
