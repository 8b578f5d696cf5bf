package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"insurelytics/internal/jurisdiction"
	"insurelytics/internal/metrics"
	"insurelytics/internal/selection"
	"insurelytics/internal/stats"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Dashboard ties the pipeline, the published snapshot and the selection
// machine together. Uploads republish the snapshot and reset the selection;
// identical concurrent uploads share a single run.
type Dashboard struct {
	pipeline *Pipeline
	store    *Store
	machine  *selection.Machine
	metrics  *metrics.Metrics

	group singleflight.Group

	mu  sync.Mutex
	lob jurisdiction.LOB
}

type runResult struct {
	snap   *Snapshot
	report Report
}

// NewDashboard wires the components and installs the initial selection
// context: the Auto line of business over an empty upload.
func NewDashboard(p *Pipeline, store *Store, machine *selection.Machine, m *metrics.Metrics) *Dashboard {
	d := &Dashboard{
		pipeline: p,
		store:    store,
		machine:  machine,
		metrics:  m,
		lob:      jurisdiction.LOBAuto,
	}
	machine.OnTransition(func(tr selection.Transition) {
		d.metrics.IncrementTransition(string(tr.Event.Kind))
	})
	machine.Reset(d.contextFor(nil, jurisdiction.LOBAuto))
	return d
}

func (d *Dashboard) contextFor(snap *Snapshot, lob jurisdiction.LOB) selection.Context {
	if snap != nil {
		return selection.Context{LOB: lob, Timeline: snap.Timeline, Codes: snap.Codes}
	}
	tables := d.pipeline.Tables()
	return selection.Context{
		LOB:      lob,
		Timeline: stats.BuildTimelineModel(nil, tables.Schedule),
		Codes:    tables.Resolver().Codes(),
	}
}

// Upload ingests data. On failure the previously published snapshot and the
// selection state are left untouched.
func (d *Dashboard) Upload(ctx context.Context, name string, data []byte) (*Snapshot, Report, error) {
	key := Checksum(data)

	v, err, shared := d.group.Do(key, func() (any, error) {
		snap, report, err := d.pipeline.Run(ctx, name, data)
		if err != nil {
			return runResult{report: report}, err
		}

		d.mu.Lock()
		lob := d.lob
		d.mu.Unlock()

		d.store.Publish(snap)
		d.machine.Reset(d.contextFor(snap, lob))
		return runResult{snap: snap, report: report}, nil
	})

	res, _ := v.(runResult)
	res.report.Shared = shared
	if shared {
		log.Debug().Str("checksum", key).Msg("Upload shared an in-flight ingestion")
	}
	if err != nil {
		return nil, res.report, err
	}
	return res.snap, res.report, nil
}

// UploadFile reads path and ingests it.
func (d *Dashboard) UploadFile(ctx context.Context, path string) (*Snapshot, Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Report{Source: path}, fmt.Errorf("read workbook: %w", err)
	}
	return d.Upload(ctx, filepath.Base(path), data)
}

// SetLOB switches the active line of business, clearing the selection when it changes.
func (d *Dashboard) SetLOB(lob jurisdiction.LOB) {
	d.mu.Lock()
	d.lob = lob
	d.mu.Unlock()

	d.machine.SetContext(d.contextFor(d.store.Current(), lob))
}

// LOB returns the active line of business.
func (d *Dashboard) LOB() jurisdiction.LOB {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lob
}

// Snapshot returns the published snapshot, or nil before the first upload.
func (d *Dashboard) Snapshot() *Snapshot {
	return d.store.Current()
}

// Timeline returns the rollout timeline for lob from the published snapshot,
// or the schedule-only Auto timeline before the first upload.
func (d *Dashboard) Timeline(lob jurisdiction.LOB) stats.LOBTimeline {
	if snap := d.store.Current(); snap != nil {
		return snap.Timeline[lob]
	}
	return stats.BucketTimeline(lob, nil, d.pipeline.Tables().Schedule)
}

// Selection returns the selection machine.
func (d *Dashboard) Selection() *selection.Machine {
	return d.machine
}

// SelectionView is what the map and detail panel render.
type SelectionView struct {
	LOB        jurisdiction.LOB          `json:"lob"`
	State      selection.State           `json:"state"`
	ActiveCode string                    `json:"activeCode,omitempty"`
	Active     *jurisdiction.StateRecord `json:"active,omitempty"`
	DimSet     []string                  `json:"dimSet"`
}

// View snapshots the selection together with the active record, if uploaded.
func (d *Dashboard) View() SelectionView {
	state := d.machine.State()
	view := SelectionView{
		LOB:        d.LOB(),
		State:      state,
		ActiveCode: state.ActiveCode(),
		DimSet:     d.machine.DimSet(),
	}
	if rec, ok := d.store.Current().Record(view.ActiveCode); ok {
		view.Active = &rec
	}
	return view
}
