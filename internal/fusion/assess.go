package fusion

import (
	"log/slog"

	"github.com/bver-dev/bver/internal/domain"
	"github.com/bver-dev/bver/internal/observability"
)

// Assessor scores canonical records and records the verdict.
type Assessor struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAssessor creates an Assessor.
func NewAssessor(logger *slog.Logger, metrics *observability.Metrics) *Assessor {
	return &Assessor{logger: logger, metrics: metrics}
}

// Assess applies corrections on top of record and scores the result. It
// returns domain.ErrMissingAssessedValue when no usable assessed value
// remains after corrections.
func (a *Assessor) Assess(record domain.PropertyRecord, c domain.Corrections) (domain.AssessmentResult, error) {
	res, err := domain.ScoreAssessment(record, c)
	if err != nil {
		a.logger.Debug("assessment rejected", "address", record.Address.String(), "error", err)
		return domain.AssessmentResult{}, err
	}

	a.metrics.Assessments.WithLabelValues(string(res.Viability)).Inc()
	a.logger.Info("assessment scored",
		"address", record.Address.String(),
		"source", record.DataSource,
		"viability", res.Viability,
		"over_pct", res.OverAssessmentPercentage,
		"confidence", res.Confidence,
	)
	return res, nil
}
