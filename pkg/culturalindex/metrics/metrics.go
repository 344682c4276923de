// Package metrics exports cultural index activity as Prometheus metrics.
package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tendant/cultural-index/pkg/culturalindex"
)

// Metrics is a culturalindex.EventSink that counts uploads and votes.
// Counters stay nil until Register is called, so an unregistered Metrics is
// a no-op sink.
type Metrics struct {
	piecesUploaded prometheus.Counter
	votesCast      prometheus.Counter
	voteWeight     prometheus.Counter
	voteWeights    prometheus.Histogram

	registerOnce sync.Once
}

// New creates Metrics registered with registry. A nil registry leaves the
// counters unregistered.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{}
	m.Register(registry)
	return m
}

// Register registers the collectors with the given registry. It is
// idempotent; calls after the first registration are no-ops.
func (m *Metrics) Register(registry prometheus.Registerer) {
	if registry == nil {
		return
	}

	m.registerOnce.Do(func() {
		factory := promauto.With(registry)

		m.piecesUploaded = factory.NewCounter(prometheus.CounterOpts{
			Name: "culturalindex_pieces_uploaded_total",
			Help: "Total number of pieces uploaded",
		})

		m.votesCast = factory.NewCounter(prometheus.CounterOpts{
			Name: "culturalindex_votes_cast_total",
			Help: "Total number of accepted votes",
		})

		m.voteWeight = factory.NewCounter(prometheus.CounterOpts{
			Name: "culturalindex_vote_weight_total",
			Help: "Sum of the weights of all accepted votes",
		})

		m.voteWeights = factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "culturalindex_vote_weight",
			Help:    "Distribution of accepted vote weights",
			Buckets: prometheus.ExponentialBuckets(1, 10, 8),
		})
	})
}

// PieceUploaded increments the upload counter
func (m *Metrics) PieceUploaded(ctx context.Context, piece culturalindex.Piece) error {
	if m.piecesUploaded != nil {
		m.piecesUploaded.Inc()
	}
	return nil
}

// VoteCast increments the vote counters
func (m *Metrics) VoteCast(ctx context.Context, pieceID int, voter culturalindex.Voter) error {
	if m.votesCast != nil {
		m.votesCast.Inc()
		m.voteWeight.Add(voter.Weight)
		m.voteWeights.Observe(voter.Weight)
	}
	return nil
}

// PieceCountGauge registers a gauge reporting idx.PieceCount() at scrape time.
func PieceCountGauge(registry prometheus.Registerer, idx culturalindex.Index) prometheus.GaugeFunc {
	return promauto.With(registry).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "culturalindex_pieces",
		Help: "Number of pieces currently in the index",
	}, func() float64 {
		return float64(idx.PieceCount())
	})
}
