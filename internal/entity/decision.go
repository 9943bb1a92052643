package entity

// RoutingDecision gates operator review for one file.
type RoutingDecision string

const (
	AutoApprove RoutingDecision = "AUTO_APPROVE"
	SoftReview  RoutingDecision = "SOFT_REVIEW"
	HardConfirm RoutingDecision = "HARD_CONFIRM"
)
