package ingest

import (
	"sync/atomic"

	"insurelytics/internal/metrics"

	"github.com/rs/zerolog/log"
)

// Store holds the currently published snapshot. Readers never observe a
// partially built model: a snapshot is replaced wholesale or not at all.
type Store struct {
	current atomic.Pointer[Snapshot]
	metrics *metrics.Metrics
}

// NewStore returns an empty store. m may be nil.
func NewStore(m *metrics.Metrics) *Store {
	return &Store{metrics: m}
}

// Publish replaces the current snapshot and returns the previous one.
func (s *Store) Publish(snap *Snapshot) *Snapshot {
	prev := s.current.Swap(snap)
	n := 0
	if snap != nil {
		n = len(snap.Records)
	}
	s.metrics.SetJurisdictions(n)

	ev := log.Debug().Int("records", n)
	if snap != nil {
		ev = ev.Str("snapshot", snap.ID)
	}
	if prev != nil {
		ev = ev.Str("previous", prev.ID)
	}
	ev.Msg("Published snapshot")
	return prev
}

// Current returns the published snapshot, or nil before the first upload.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}
