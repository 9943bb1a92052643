// Package routing turns per-field confidences into one decision per file.
package routing

import (
	"github.com/joseph-ayodele/receipt-renamer/internal/entity"
)

const (
	DefaultAutoApprove = 0.9
	DefaultSoftReview  = 0.7
)

// Thresholds are inclusive lower bounds: a score equal to AutoApprove is
// auto-approved, a score equal to SoftReview gets a soft review.
type Thresholds struct {
	AutoApprove float64
	SoftReview  float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{AutoApprove: DefaultAutoApprove, SoftReview: DefaultSoftReview}
}

// Aggregate is the minimum confidence over the scored fields. Taking the
// minimum means one weak field is enough to pull a file into review.
func Aggregate(v entity.VerificationRecord) float64 {
	agg := 1.0
	for _, f := range entity.ScoredFields {
		if c := v.Confidence(f); c < agg {
			agg = c
		}
	}
	return agg
}

// Decide maps an aggregate score to a decision.
func Decide(score float64, t Thresholds) entity.RoutingDecision {
	switch {
	case score >= t.AutoApprove:
		return entity.AutoApprove
	case score >= t.SoftReview:
		return entity.SoftReview
	default:
		return entity.HardConfirm
	}
}

// Route aggregates and decides in one step.
func Route(v entity.VerificationRecord, t Thresholds) (entity.RoutingDecision, float64) {
	score := Aggregate(v)
	return Decide(score, t), score
}

// LowConfidence lists scored fields below floor, in field order.
func LowConfidence(v entity.VerificationRecord, floor float64) []entity.Field {
	var out []entity.Field
	for _, f := range entity.ScoredFields {
		if v.Confidence(f) < floor {
			out = append(out, f)
		}
	}
	return out
}

// ApplyPlaceholderPolicy returns a copy of rec with every scored field below
// floor cleared, so the filename carries a placeholder instead of an
// untrusted value. The record passed in is not modified.
func ApplyPlaceholderPolicy(rec entity.ReceiptRecord, v entity.VerificationRecord, floor float64) (entity.ReceiptRecord, []entity.Field) {
	low := LowConfidence(v, floor)
	return rec.Without(low...), low
}
