package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// pipelineOutcomes counts pipeline runs by pipeline and outcome. Outcome is
// "success", the rejection reason, "upstream" or "persistence", so the label
// set stays bounded.
var pipelineOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pipeline_outcomes_total",
		Help: "Submission and reactivation pipeline results.",
	},
	[]string{"pipeline", "outcome"},
)

func init() {
	prometheus.MustRegister(pipelineOutcomes)
}

func recordOutcome(pipeline string, err error) {
	pipelineOutcomes.WithLabelValues(pipeline, outcomeLabel(err)).Inc()
}

func outcomeLabel(err error) string {
	var rej *Rejection
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &rej):
		return rej.Reason.Error()
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	default:
		return "error"
	}
}
