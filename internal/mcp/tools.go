package mcp

import (
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// Ingestion and analytics
	sdk.AddTool(s.server, &sdk.Tool{
		Name: "ingest_workbook",
		Description: "Ingest a jurisdiction export workbook (.xlsx or legacy .xls) from a local path. " +
			"Replaces the published dataset and clears the current map selection. " +
			"On failure the previous dataset stays in place and the error says why the file was rejected.",
	}, s.handleIngestWorkbook)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "get_kpi_summary",
		Description: "Get the portfolio KPIs of the published dataset: form totals per line of business, average and median forms per jurisdiction, complexity, filing type and rate regulation breakdowns, and test execution completion.",
	}, s.handleGetKPISummary)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "get_state_record",
		Description: "Get the normalized record for one jurisdiction by its two-letter code (e.g. TX, DC).",
	}, s.handleGetStateRecord)

	sdk.AddTool(s.server, &sdk.Tool{
		Name: "get_timeline",
		Description: "Get the six-year rollout timeline for a line of business as a year by quarter grid. " +
			"Auto follows the published schedule; Home and Umbrella are derived from the uploaded jurisdictions.",
	}, s.handleGetTimeline)

	// Map selection
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "selection_pointer_enter",
		Description: "The pointer entered a jurisdiction on the map. Hover updates are applied on the next frame.",
	}, s.handlePointerEnter)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "selection_pointer_leave",
		Description: "The pointer left a jurisdiction on the map. The hover clears after a short delay unless the pointer enters another jurisdiction first.",
	}, s.handlePointerLeave)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "selection_click",
		Description: "Select a jurisdiction. Rejected (accepted=false) when a year filter is active and the jurisdiction is not scheduled in that year.",
	}, s.handleClick)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "selection_select_year",
		Description: "Toggle the year filter. Selecting the active year again clears it. Jurisdictions outside the year are dimmed.",
	}, s.handleSelectYear)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "selection_set_lob",
		Description: "Switch the active line of business (Auto, Home/Dwelling or Umbrella). Changing it clears the selection.",
	}, s.handleSetLOB)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "selection_clear",
		Description: "Clear hover, selected jurisdiction and year filter.",
	}, s.handleClear)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "get_selection",
		Description: "Get the current map selection: hovered and selected jurisdiction, year filter, dimmed jurisdictions and the active record.",
	}, s.handleGetSelection)

	// Diagnostics
	sdk.AddTool(s.server, &sdk.Tool{
		Name: "get_metrics",
		Description: "Get the server's Prometheus metrics: ingested rows by outcome, failed runs by reason, ingestion latency, " +
			"published jurisdictions and selection transitions. Set all=true to include Go runtime and process metrics.",
	}, s.handleGetMetrics)
}
