package similarity

import (
	"time"

	"go.uber.org/zap"

	"cosim/internal/domain"
	"cosim/internal/metrics"
	"cosim/internal/port"
)

// InstrumentedScorer records query counts, latency and fan-out of an inner
// scorer.
type InstrumentedScorer struct {
	inner  port.Scorer
	logger *zap.Logger
}

func NewInstrumented(inner port.Scorer, logger *zap.Logger) *InstrumentedScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedScorer{inner: inner, logger: logger}
}

func (s *InstrumentedScorer) Score(query domain.Query) domain.Scores {
	method := s.inner.Method()
	start := time.Now()

	scores := s.inner.Score(query)

	duration := time.Since(start)
	metrics.ScoreQueriesTotal.WithLabelValues(method).Inc()
	metrics.ScoreDuration.WithLabelValues(method).Observe(duration.Seconds())
	metrics.ScoredDocuments.WithLabelValues(method).Observe(float64(len(scores)))

	s.logger.Debug("query scored",
		zap.String("method", method),
		zap.Int("query_terms", len(query)),
		zap.Int("matched_docs", len(scores)),
		zap.Duration("duration", duration),
	)
	return scores
}

func (s *InstrumentedScorer) Method() string { return s.inner.Method() }
