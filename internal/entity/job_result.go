package entity

import (
	"time"

	"github.com/joseph-ayodele/receipt-renamer/constants"
)

// FileJobResult is the outcome for one input file.
// Status is StatusSkippedError exactly when Err is set.
type FileJobResult struct {
	Path      string               `json:"path"`
	Target    string               `json:"target,omitempty"` // new base name; empty when skipped or failed
	Status    constants.FileStatus `json:"status"`
	Decision  RoutingDecision      `json:"decision,omitempty"`
	Aggregate float64              `json:"aggregate"`
	Flagged   bool                 `json:"flagged"` // soft review: renamed, but worth a look
	DryRun    bool                 `json:"dry_run"`
	Record    *ReceiptRecord       `json:"record,omitempty"`
	Err       error                `json:"-"`
	Elapsed   time.Duration        `json:"elapsed"`
}

// Failed reports whether processing ended in an error.
func (r FileJobResult) Failed() bool {
	return r.Err != nil
}

// ErrorMessage returns the error text or "".
func (r FileJobResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
