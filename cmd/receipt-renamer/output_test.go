package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/receipt-renamer/constants"
	"github.com/joseph-ayodele/receipt-renamer/internal/entity"
	"github.com/joseph-ayodele/receipt-renamer/internal/pipeline"
)

func TestProgressPrinterParallel(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out, true, true, false)

	p.RunStarted(2, 4)
	p.FileStarted(1, 2, "/in/b.jpg")
	p.FileFinished(1, 2, entity.FileJobResult{Path: "/in/b.jpg", Status: constants.StatusSkippedNonReceipt})
	p.FileFinished(0, 2, entity.FileJobResult{
		Path:      "/in/a.pdf",
		Target:    "2024-03-15_DrSmith_JohnDoe_SGD150.pdf",
		Status:    constants.StatusRenamed,
		Decision:  entity.SoftReview,
		Aggregate: 0.8,
		Flagged:   true,
		Record: &entity.ReceiptRecord{
			Date:             entity.StringPtr("2024-03-15"),
			Amount:           entity.AmountPtr("150"),
			Currency:         entity.StringPtr("SGD"),
			IsMedicalReceipt: true,
		},
	})

	got := out.String()
	for _, want := range []string{
		"Found 2 file(s) to process using 4 worker(s)",
		"DRY RUN - no files will be renamed",
		"[1/2] b.jpg\n         -> Skipped (not a medical receipt)",
		"[2/2] a.pdf\n         -> 2024-03-15_DrSmith_JohnDoe_SGD150.pdf [review: SOFT_REVIEW 0.80]",
		"Provider: UNKNOWN",
		"Amount: 150 SGD",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestProgressPrinterInteractiveHeaderFirst(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out, false, false, true)

	p.FileStarted(0, 3, "/in/a.pdf")
	p.FileFinished(0, 3, entity.FileJobResult{Path: "/in/a.pdf", Status: constants.StatusSkippedByUser})

	want := "[1/3] a.pdf\n         -> Skipped by user\n"
	if out.String() != want {
		t.Fatalf("got %q, want %q", out.String(), want)
	}
}

func TestPrintSummary(t *testing.T) {
	sum := pipeline.Summary{
		Results: []entity.FileJobResult{
			{Path: "/in/a.pdf", Status: constants.StatusRenamed, Target: "x.pdf"},
			{Path: "/in/b.jpg", Status: constants.StatusSkippedNonReceipt},
			{Path: "/in/c.png", Status: constants.StatusSkippedError, Err: errors.New("DECODE_ERROR: decode c.png")},
		},
		Elapsed: 3 * time.Second,
	}
	var out bytes.Buffer
	printSummary(&out, sum, true)

	got := out.String()
	for _, want := range []string{"Would rename", "Skipped (not receipts)", "c.png", "DECODE_ERROR: decode c.png"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}
