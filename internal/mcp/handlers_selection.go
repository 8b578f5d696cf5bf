package mcp

import (
	"context"
	"errors"

	"insurelytics/internal/ingest"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// CodeInput identifies the jurisdiction under the pointer or being clicked.
type CodeInput struct {
	Code string `json:"code" jsonschema:"two-letter jurisdiction code, e.g. TX (required)"`
}

// YearInput names a rollout year.
type YearInput struct {
	Year int `json:"year" jsonschema:"rollout year inside the six-year window (required)"`
}

// LOBInput names a line of business.
type LOBInput struct {
	LOB string `json:"lob" jsonschema:"Auto, Home/Dwelling or Umbrella (required)"`
}

// SelectionResult is the selection after an event was dispatched.
type SelectionResult struct {
	// Accepted is false when the event was rejected, e.g. a click outside the year filter.
	Accepted  bool                 `json:"accepted"`
	Selection ingest.SelectionView `json:"selection"`
}

func (s *Server) selection(accepted bool) SelectionResult {
	return SelectionResult{Accepted: accepted, Selection: s.dashboard.View()}
}

func requireCode(in CodeInput) (string, error) {
	code := normalizeCode(in.Code)
	if code == "" {
		return "", errors.New("code is required")
	}
	return code, nil
}

func (s *Server) handlePointerEnter(_ context.Context, _ *sdk.CallToolRequest, in CodeInput) (*sdk.CallToolResult, SelectionResult, error) {
	code, err := requireCode(in)
	if err != nil {
		return nil, SelectionResult{}, err
	}
	s.dashboard.Selection().PointerEnter(code)
	return nil, s.selection(true), nil
}

func (s *Server) handlePointerLeave(_ context.Context, _ *sdk.CallToolRequest, in CodeInput) (*sdk.CallToolResult, SelectionResult, error) {
	code, err := requireCode(in)
	if err != nil {
		return nil, SelectionResult{}, err
	}
	s.dashboard.Selection().PointerLeave(code)
	return nil, s.selection(true), nil
}

func (s *Server) handleClick(_ context.Context, _ *sdk.CallToolRequest, in CodeInput) (*sdk.CallToolResult, SelectionResult, error) {
	code, err := requireCode(in)
	if err != nil {
		return nil, SelectionResult{}, err
	}
	return nil, s.selection(s.dashboard.Selection().Click(code)), nil
}

func (s *Server) handleSelectYear(_ context.Context, _ *sdk.CallToolRequest, in YearInput) (*sdk.CallToolResult, SelectionResult, error) {
	return nil, s.selection(s.dashboard.Selection().SelectYear(in.Year)), nil
}

func (s *Server) handleSetLOB(_ context.Context, _ *sdk.CallToolRequest, in LOBInput) (*sdk.CallToolResult, SelectionResult, error) {
	if in.LOB == "" {
		return nil, SelectionResult{}, errors.New("lob is required")
	}
	lob, err := s.resolveLOB(in.LOB)
	if err != nil {
		return nil, SelectionResult{}, err
	}
	s.dashboard.SetLOB(lob)
	return nil, s.selection(true), nil
}

func (s *Server) handleClear(_ context.Context, _ *sdk.CallToolRequest, _ noInput) (*sdk.CallToolResult, SelectionResult, error) {
	s.dashboard.Selection().ClearAll()
	return nil, s.selection(true), nil
}

func (s *Server) handleGetSelection(_ context.Context, _ *sdk.CallToolRequest, _ noInput) (*sdk.CallToolResult, SelectionResult, error) {
	return nil, s.selection(true), nil
}
