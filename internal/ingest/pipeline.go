// Package ingest runs an uploaded workbook through parsing, normalization,
// aggregation and bucketing, and republishes the result as an immutable snapshot.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"insurelytics/internal/jurisdiction"
	"insurelytics/internal/metrics"
	"insurelytics/internal/reference"
	"insurelytics/internal/sheet"
	"insurelytics/internal/stats"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "insurelytics/internal/ingest"

// Snapshot is the immutable domain model produced by one successful run.
type Snapshot struct {
	ID         string                              `json:"id"`
	Source     string                              `json:"source"`
	Checksum   string                              `json:"checksum"`
	Format     sheet.Format                        `json:"format"`
	IngestedAt time.Time                           `json:"ingestedAt"`
	Records    map[string]jurisdiction.StateRecord `json:"records"`
	KPI        stats.KPISummary                    `json:"kpi"`
	Timeline   stats.TimelineModel                 `json:"timeline"`
	// Codes is every jurisdiction the map draws, uploaded or not.
	Codes []string `json:"codes"`
}

// Record returns the record for code.
func (s *Snapshot) Record(code string) (jurisdiction.StateRecord, bool) {
	if s == nil {
		return jurisdiction.StateRecord{}, false
	}
	rec, ok := s.Records[code]
	return rec, ok
}

// RecordCodes returns the codes present in the upload, sorted.
func (s *Snapshot) RecordCodes() []string {
	if s == nil {
		return nil
	}
	codes := make([]string, 0, len(s.Records))
	for code := range s.Records {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Report summarises a run, successful or not.
type Report struct {
	SnapshotID string        `json:"snapshotId,omitempty"`
	Source     string        `json:"source"`
	Format     sheet.Format  `json:"format"`
	Bytes      int           `json:"bytes"`
	RowsRead   int           `json:"rowsRead"`
	Records    int           `json:"records"`
	Unresolved int           `json:"unresolved"`
	Duplicates int           `json:"duplicates"`
	Duration   time.Duration `json:"duration"`
	// Shared is set when the run was collapsed with an identical concurrent upload.
	Shared bool `json:"shared,omitempty"`
}

// Pipeline runs parse → resolve → merge → normalize → aggregate → bucket.
type Pipeline struct {
	tables  *reference.Tables
	merger  *reference.Merger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	// MaxUploadBytes is a soft limit; larger uploads are logged, not rejected.
	MaxUploadBytes int64
	now            func() time.Time
}

// NewPipeline builds a pipeline over the given reference tables. m may be nil.
func NewPipeline(tables *reference.Tables, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		tables:  tables,
		merger:  reference.NewMerger(tables),
		metrics: m,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
}

// SetTracerProvider makes the pipeline record its spans on tp instead of the
// global provider.
func (p *Pipeline) SetTracerProvider(tp trace.TracerProvider) {
	p.tracer = tp.Tracer(tracerName)
}

// Tables returns the reference tables the pipeline merges with.
func (p *Pipeline) Tables() *reference.Tables {
	return p.tables
}

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Run ingests one workbook synchronously. On error nothing is returned but the
// report; callers keep whatever snapshot they already had.
func (p *Pipeline) Run(ctx context.Context, name string, data []byte) (*Snapshot, Report, error) {
	start := p.now()
	report := Report{Source: name, Bytes: len(data), Format: sheet.Sniff(data)}

	ctx, span := p.tracer.Start(ctx, "ingest.run", trace.WithAttributes(
		attribute.String("ingest.source", name),
		attribute.Int("ingest.bytes", len(data)),
	))
	defer span.End()

	snap, err := p.run(ctx, name, data, &report)
	report.Duration = p.now().Sub(start)
	p.metrics.ObserveIngestDuration(report.Duration)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.metrics.IncrementFailure(FailureReason(err))
		log.Error().Err(err).Str("source", name).Msg("Ingestion failed")
		return nil, report, err
	}

	report.SnapshotID = snap.ID
	span.SetAttributes(attribute.String("ingest.snapshot_id", snap.ID), attribute.Int("ingest.records", len(snap.Records)))
	p.metrics.ObserveRows(report.RowsRead-report.Unresolved, report.Unresolved, report.Duplicates)

	log.Info().
		Str("source", name).
		Str("snapshot", snap.ID).
		Int("rows", report.RowsRead).
		Int("records", report.Records).
		Int("unresolved", report.Unresolved).
		Int("duplicates", report.Duplicates).
		Dur("duration", report.Duration).
		Msg("Ingestion complete")

	return snap, report, nil
}

func (p *Pipeline) run(ctx context.Context, name string, data []byte, report *Report) (*Snapshot, error) {
	if p.MaxUploadBytes > 0 && int64(len(data)) > p.MaxUploadBytes {
		log.Warn().Str("source", name).Int("bytes", len(data)).Int64("limit", p.MaxUploadBytes).Msg("Upload exceeds the recommended size")
	}

	// 1. Parse
	_, parseSpan := p.tracer.Start(ctx, "ingest.parse")
	rows, err := sheet.Parse(data)
	if err != nil {
		parseSpan.RecordError(err)
		parseSpan.SetStatus(codes.Error, err.Error())
		parseSpan.End()
		return nil, err
	}
	defer rows.Close()
	parseSpan.SetAttributes(attribute.String("sheet.format", string(rows.Format())))
	parseSpan.End()

	// 2. Resolve, merge and normalize
	_, normSpan := p.tracer.Start(ctx, "ingest.normalize")
	records, ns, err := jurisdiction.Normalize(rows, p.tables.Resolver(), p.merger)
	report.RowsRead, report.Unresolved, report.Duplicates = ns.Rows, ns.Unresolved, ns.Duplicates
	if err != nil {
		normSpan.RecordError(err)
		normSpan.End()
		return nil, err
	}
	report.Records = len(records)
	normSpan.SetAttributes(attribute.Int("ingest.rows", ns.Rows), attribute.Int("ingest.unresolved", ns.Unresolved))
	normSpan.End()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ingest %s: %w", name, err)
	}

	// 3. Aggregate
	_, kpiSpan := p.tracer.Start(ctx, "ingest.aggregate")
	kpi := stats.CalculateKPISummary(records)
	kpiSpan.End()

	// 4. Bucket
	_, bucketSpan := p.tracer.Start(ctx, "ingest.bucket")
	timeline := stats.BuildTimelineModel(records, p.tables.Schedule)
	bucketSpan.End()

	return &Snapshot{
		ID:         uuid.NewString(),
		Source:     name,
		Checksum:   Checksum(data),
		Format:     rows.Format(),
		IngestedAt: p.now().UTC(),
		Records:    records,
		KPI:        kpi,
		Timeline:   timeline,
		Codes:      p.tables.Resolver().Codes(),
	}, nil
}

// FailureReason classifies an ingestion error for metrics.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, sheet.ErrUnknownFormat):
		return "unknown_format"
	case errors.Is(err, sheet.ErrNoDataRows):
		return "no_data_rows"
	case errors.Is(err, sheet.ErrCorrupt):
		return "corrupt"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
