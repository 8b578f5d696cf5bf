package commands

import (
	"encoding/json"
	"fmt"

	"insurelytics/internal/ingest"
	"insurelytics/internal/jurisdiction"
	"insurelytics/internal/stats"

	"github.com/spf13/cobra"
)

var ingestLOB string

// ingestOutput is what `insurelytics ingest` prints.
type ingestOutput struct {
	Report   ingest.Report    `json:"report"`
	KPI      stats.KPISummary `json:"kpi"`
	LOB      jurisdiction.LOB `json:"lob"`
	Timeline []stats.YearView `json:"timeline"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a workbook once and print KPIs and the rollout timeline as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lob, err := jurisdiction.ParseLOB(ingestLOB)
		if err != nil {
			return err
		}

		defer startTracing(cmd.Context())()

		snap, report, err := dashboard.UploadFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := ingestOutput{
			Report:   report,
			KPI:      snap.KPI,
			LOB:      lob,
			Timeline: snap.Timeline[lob].View(),
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestLOB, "lob", string(jurisdiction.LOBAuto), "line of business: auto, home or umbrella")
}
