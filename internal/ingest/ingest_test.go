package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"insurelytics/cmd/samplegen/engine"
	"insurelytics/internal/jurisdiction"
	"insurelytics/internal/metrics"
	"insurelytics/internal/reference"
	"insurelytics/internal/selection"
	"insurelytics/internal/sheet"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func header() []any {
	out := make([]any, len(jurisdiction.Columns))
	for i, c := range jurisdiction.Columns {
		out[i] = c
	}
	return out
}

func workbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	data, err := engine.Workbook(append([][]any{header()}, rows...))
	require.NoError(t, err)
	return data
}

func newPipeline(t *testing.T) (*Pipeline, *metrics.Metrics) {
	t.Helper()
	tables, err := reference.Default()
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())
	return NewPipeline(tables, m), m
}

func TestPipeline_DuplicateTexasLastWriteWins(t *testing.T) {
	p, m := newPipeline(t)
	data := workbook(t,
		[]any{"Texas", 100},
		[]any{"Ohio", 40},
		[]any{"Texas", 150},
	)

	snap, report, err := p.Run(context.Background(), "dup.xlsx", data)
	require.NoError(t, err)

	assert.Equal(t, 150, snap.Records["TX"].TotalForms)
	assert.Len(t, snap.Records, 2)
	assert.Equal(t, 3, report.RowsRead)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, snap.ID, report.SnapshotID)
	assert.Equal(t, sheet.FormatOOXML, snap.Format)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rows.WithLabelValues("duplicate")))
}

func TestPipeline_AtlantisExcludedFromKPI(t *testing.T) {
	p, _ := newPipeline(t)
	data := workbook(t,
		[]any{"Utah", 30},
		[]any{"Atlantis", 900},
		[]any{"Maine", 10},
	)

	snap, report, err := p.Run(context.Background(), "atlantis.xlsx", data)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.KPI.StateCount)
	assert.Equal(t, 40, snap.KPI.TotalForms)
	assert.Equal(t, 20, snap.KPI.AvgFormsPerState)
	assert.Equal(t, 1, report.Unresolved)
	assert.Equal(t, []string{"ME", "UT"}, snap.RecordCodes())
}

func TestPipeline_MergesReferenceData(t *testing.T) {
	p, _ := newPipeline(t)
	data := workbook(t,
		[]any{"Texas", 10},
		[]any{"California", 10},
	)

	snap, _, err := p.Run(context.Background(), "ref.xlsx", data)
	require.NoError(t, err)

	tx := snap.Records["TX"]
	exec := p.Tables().Execution["TX"]
	assert.Equal(t, exec.Pass, tx.Pass)
	assert.Equal(t, exec.Completion(), tx.Completion)

	// No execution data for CA
	ca := snap.Records["CA"]
	assert.Zero(t, ca.Pass+ca.Fail+ca.NoRun)
	assert.Zero(t, ca.Completion)
	assert.Len(t, snap.Codes, 51)
}

func TestPipeline_Deterministic(t *testing.T) {
	p, _ := newPipeline(t)
	rows, err := engine.Generate(engine.GeneratorConfig{Scenario: "noisy", Count: 30, Seed: 99})
	require.NoError(t, err)
	data, err := engine.Workbook(rows)
	require.NoError(t, err)

	first, _, err := p.Run(context.Background(), "a.xlsx", data)
	require.NoError(t, err)
	second, _, err := p.Run(context.Background(), "a.xlsx", data)
	require.NoError(t, err)

	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.KPI, second.KPI)
	assert.Equal(t, first.Timeline, second.Timeline)
	assert.Equal(t, first.Checksum, second.Checksum)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestPipeline_ParseFailure(t *testing.T) {
	p, m := newPipeline(t)

	snap, report, err := p.Run(context.Background(), "notes.txt", []byte("just some text"))
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.Empty(t, report.SnapshotID)

	var pe *sheet.ParseError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, sheet.ErrUnknownFormat)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues("unknown_format")))
}

func TestPipeline_CancelledContext(t *testing.T) {
	p, _ := newPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := p.Run(ctx, "x.xlsx", workbook(t, []any{"Ohio", 1}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "cancelled", FailureReason(err))
}

func tracedPipeline(t *testing.T) (*Pipeline, *tracetest.SpanRecorder) {
	t.Helper()
	p, _ := newPipeline(t)
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	p.SetTracerProvider(tp)
	return p, rec
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestPipeline_StageSpans(t *testing.T) {
	p, rec := tracedPipeline(t)
	data := workbook(t,
		[]any{"Texas", 100},
		[]any{"Atlantis", 5},
	)

	snap, _, err := p.Run(context.Background(), "traced.xlsx", data)
	require.NoError(t, err)

	ended := rec.Ended()
	var names []string
	byName := make(map[string]sdktrace.ReadOnlySpan)
	for _, span := range ended {
		names = append(names, span.Name())
		byName[span.Name()] = span
	}
	assert.Equal(t, []string{"ingest.parse", "ingest.normalize", "ingest.aggregate", "ingest.bucket", "ingest.run"}, names)

	root := byName["ingest.run"]
	for _, stage := range []string{"ingest.parse", "ingest.normalize", "ingest.aggregate", "ingest.bucket"} {
		span := byName[stage]
		assert.Equal(t, root.SpanContext().TraceID(), span.SpanContext().TraceID(), stage)
		assert.Equal(t, root.SpanContext().SpanID(), span.Parent().SpanID(), "%s is a child of ingest.run", stage)
	}

	v, ok := spanAttr(root, "ingest.snapshot_id")
	require.True(t, ok)
	assert.Equal(t, snap.ID, v.AsString())
	v, ok = spanAttr(byName["ingest.parse"], "sheet.format")
	require.True(t, ok)
	assert.Equal(t, "xlsx", v.AsString())
	v, ok = spanAttr(byName["ingest.normalize"], "ingest.unresolved")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.AsInt64())
}

func TestPipeline_FailedRunSpanStatus(t *testing.T) {
	p, rec := tracedPipeline(t)

	_, _, err := p.Run(context.Background(), "notes.txt", []byte("plain text"))
	require.Error(t, err)

	ended := rec.Ended()
	require.Len(t, ended, 2, "parse and run spans")
	for _, span := range ended {
		assert.Equal(t, codes.Error, span.Status().Code, span.Name())
		assert.NotEmpty(t, span.Events(), "%s records the error", span.Name())
	}
}

func newDashboard(t *testing.T) (*Dashboard, *selection.ManualScheduler) {
	t.Helper()
	p, m := newPipeline(t)
	sched := selection.NewManualScheduler()
	machine := selection.NewMachine(selection.Config{LeaveDelay: 80 * time.Millisecond, Scheduler: sched})
	return NewDashboard(p, NewStore(m), machine, m), sched
}

func TestDashboard_FailedUploadKeepsPreviousSnapshot(t *testing.T) {
	d, _ := newDashboard(t)
	ctx := context.Background()

	first, _, err := d.Upload(ctx, "good.xlsx", workbook(t, []any{"Ohio", 12}))
	require.NoError(t, err)

	_, _, err = d.Upload(ctx, "bad.xlsx", workbook(t))
	require.ErrorIs(t, err, sheet.ErrNoDataRows)

	assert.Same(t, first, d.Snapshot())
}

func TestDashboard_UploadResetsSelection(t *testing.T) {
	d, _ := newDashboard(t)
	ctx := context.Background()

	require.True(t, d.Selection().SelectYear(2027))
	require.True(t, d.Selection().Click("TX"))

	_, _, err := d.Upload(ctx, "fresh.xlsx", workbook(t, []any{"Texas", 120}))
	require.NoError(t, err)

	assert.True(t, d.Selection().State().IsIdle())
	assert.Empty(t, d.View().DimSet)
}

func TestDashboard_ViewCarriesActiveRecord(t *testing.T) {
	d, _ := newDashboard(t)
	_, _, err := d.Upload(context.Background(), "s.xlsx", workbook(t, []any{"Texas", 120, 60, 40, 20}))
	require.NoError(t, err)

	require.True(t, d.Selection().Click("TX"))
	view := d.View()
	require.NotNil(t, view.Active)
	assert.Equal(t, "TX", view.ActiveCode)
	assert.Equal(t, 120, view.Active.TotalForms)
	assert.Equal(t, jurisdiction.DensityHigh, view.Active.Density)

	// Jurisdictions on the schedule but not uploaded have no record
	require.True(t, d.Selection().Click("OH"))
	assert.Nil(t, d.View().Active)
}

func TestDashboard_SetLOB(t *testing.T) {
	d, _ := newDashboard(t)
	_, _, err := d.Upload(context.Background(), "s.xlsx", workbook(t,
		[]any{"Texas", 120, 60, 40, 20, "Yes", "High"},
		[]any{"Ohio", 20, 20, 0, 0},
	))
	require.NoError(t, err)

	require.True(t, d.Selection().SelectYear(2027))
	d.SetLOB(jurisdiction.LOBHome)
	assert.Equal(t, jurisdiction.LOBHome, d.LOB())
	assert.True(t, d.Selection().State().IsIdle())

	// Home: TX lands on 2026 Q3, OH has no home forms
	require.True(t, d.Selection().SelectYear(2026))
	dim := d.View().DimSet
	assert.NotContains(t, dim, "TX")
	assert.Contains(t, dim, "OH")
	assert.Len(t, dim, 50)
}

func TestDashboard_ConcurrentIdenticalUploads(t *testing.T) {
	d, _ := newDashboard(t)
	data := workbook(t, []any{"Iowa", 5})

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, _, err := d.Upload(context.Background(), "same.xlsx", data)
			if assert.NoError(t, err) {
				ids[i] = snap.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Contains(t, ids, d.Snapshot().ID, "published snapshot comes from one of the runs")
}

func TestDashboard_UploadFile(t *testing.T) {
	d, _ := newDashboard(t)
	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, os.WriteFile(path, workbook(t, []any{"Vermont", 3}), 0644))

	snap, report, err := d.UploadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "export.xlsx", report.Source)
	assert.Contains(t, snap.Records, "VT")

	_, _, err = d.UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}
