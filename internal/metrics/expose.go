package metrics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"
)

// Namespace prefixes every collector registered by New.
const Namespace = "insurelytics"

// Family is a gathered metric family in a JSON-friendly shape.
type Family struct {
	Name    string   `json:"name"`
	Help    string   `json:"help,omitempty"`
	Type    string   `json:"type"`
	Samples []Sample `json:"samples"`
}

// Sample is one labelled series. Histograms and summaries report Count and
// Sum; Value is their sum as well.
type Sample struct {
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
	Count  uint64            `json:"count,omitempty"`
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Gather collects the families from g whose names start with prefix.
// An empty prefix keeps every family.
func Gather(g prometheus.Gatherer, prefix string) ([]Family, error) {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	mfs, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	families := make([]Family, 0, len(mfs))
	for _, mf := range mfs {
		if !strings.HasPrefix(mf.GetName(), prefix) {
			continue
		}
		fam := Family{
			Name:    mf.GetName(),
			Help:    mf.GetHelp(),
			Type:    strings.ToLower(mf.GetType().String()),
			Samples: make([]Sample, 0, len(mf.GetMetric())),
		}
		for _, m := range mf.GetMetric() {
			fam.Samples = append(fam.Samples, toSample(mf.GetType(), m))
		}
		families = append(families, fam)
	}
	slices.SortFunc(families, func(a, b Family) int { return strings.Compare(a.Name, b.Name) })
	return families, nil
}

func toSample(kind dto.MetricType, m *dto.Metric) Sample {
	s := Sample{}
	if pairs := m.GetLabel(); len(pairs) > 0 {
		s.Labels = make(map[string]string, len(pairs))
		for _, lp := range pairs {
			s.Labels[lp.GetName()] = lp.GetValue()
		}
	}
	switch kind {
	case dto.MetricType_COUNTER:
		s.Value = m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		s.Value = m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM, dto.MetricType_GAUGE_HISTOGRAM:
		s.Value = m.GetHistogram().GetSampleSum()
		s.Count = m.GetHistogram().GetSampleCount()
	case dto.MetricType_SUMMARY:
		s.Value = m.GetSummary().GetSampleSum()
		s.Count = m.GetSummary().GetSampleCount()
	default:
		s.Value = m.GetUntyped().GetValue()
	}
	// NaN and infinities have no JSON encoding.
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		s.Value = 0
	}
	return s
}

// Handler serves g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}

// Serve exposes g on ln until ctx ends.
func Serve(ctx context.Context, ln net.Listener, g prometheus.Gatherer) error {
	srv := &http.Server{
		Handler:           Handler(g),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	log.Info().Str("addr", ln.Addr().String()).Msg("Metrics listener started")
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := srv.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown metrics listener: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve metrics: %w", err)
	}
}
