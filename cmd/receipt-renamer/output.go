package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/joseph-ayodele/receipt-renamer/constants"
	"github.com/joseph-ayodele/receipt-renamer/internal/entity"
	"github.com/joseph-ayodele/receipt-renamer/internal/pipeline"
)

const indent = "         "

// progressPrinter writes per-file progress lines. Parallel workers call it
// concurrently, so every write happens under mu.
type progressPrinter struct {
	mu          sync.Mutex
	out         io.Writer
	verbose     bool
	dryRun      bool
	interactive bool
	done        int
}

var _ pipeline.Observer = (*progressPrinter)(nil)

func newProgressPrinter(out io.Writer, verbose, dryRun, interactive bool) *progressPrinter {
	return &progressPrinter{out: out, verbose: verbose, dryRun: dryRun, interactive: interactive}
}

func (p *progressPrinter) RunStarted(total, workers int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if total == 0 {
		fmt.Fprintln(p.out, "No supported files found.")
		return
	}
	fmt.Fprintf(p.out, "Found %d file(s) to process using %d worker(s)\n", total, workers)
	if p.dryRun {
		fmt.Fprintln(p.out, "DRY RUN - no files will be renamed")
	}
	fmt.Fprintln(p.out)
}

// FileStarted prints the header up front in interactive mode so it sits
// above the prompt. Parallel runs print it on completion instead.
func (p *progressPrinter) FileStarted(index, total int, path string) {
	if !p.interactive {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[%d/%d] %s\n", index+1, total, filepath.Base(path))
}

func (p *progressPrinter) FileFinished(index, total int, res entity.FileJobResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if !p.interactive {
		fmt.Fprintf(p.out, "[%d/%d] %s\n", p.done, total, filepath.Base(res.Path))
	}
	fmt.Fprintf(p.out, "%s-> %s\n", indent, outcome(res))
	if p.verbose && res.Record != nil && res.Record.IsMedicalReceipt {
		p.printRecord(res)
	}
}

func outcome(res entity.FileJobResult) string {
	switch {
	case res.Failed():
		return "Failed: " + res.ErrorMessage()
	case res.Status == constants.StatusSkippedNonReceipt:
		return "Skipped (not a medical receipt)"
	case res.Status == constants.StatusSkippedByUser:
		return "Skipped by user"
	}
	s := res.Target
	if res.Status == constants.StatusReviewedAndEdited {
		s += " (edited)"
	}
	if res.Flagged {
		s += fmt.Sprintf(" [review: %s %.2f]", res.Decision, res.Aggregate)
	}
	return s
}

func (p *progressPrinter) printRecord(res entity.FileJobResult) {
	rec := res.Record
	value := func(f entity.Field) string {
		if v, ok := rec.Value(f); ok {
			return v
		}
		return "UNKNOWN"
	}
	currency, _ := rec.Value(entity.FieldCurrency)
	fmt.Fprintf(p.out, "%s   Date: %s\n", indent, value(entity.FieldDate))
	fmt.Fprintf(p.out, "%s   Provider: %s\n", indent, value(entity.FieldProvider))
	fmt.Fprintf(p.out, "%s   Patient: %s\n", indent, value(entity.FieldPatient))
	fmt.Fprintf(p.out, "%s   Amount: %s %s\n", indent, value(entity.FieldAmount), currency)
	if res.Decision != "" {
		fmt.Fprintf(p.out, "%s   Confidence: %.2f (%s)\n", indent, res.Aggregate, res.Decision)
	}
}

// printSummary renders run totals and, when present, the failed files.
func printSummary(out io.Writer, sum pipeline.Summary, dryRun bool) {
	renamed, _, failed, flagged := sum.Counts()
	var nonReceipts, byUser int
	for _, r := range sum.Results {
		switch r.Status {
		case constants.StatusSkippedNonReceipt:
			nonReceipts++
		case constants.StatusSkippedByUser:
			byUser++
		}
	}

	action := "Renamed"
	if dryRun {
		action = "Would rename"
	}
	rows := [][]string{
		{action, strconv.Itoa(renamed)},
		{"Flagged for review", strconv.Itoa(flagged)},
		{"Skipped (not receipts)", strconv.Itoa(nonReceipts)},
		{"Skipped by user", strconv.Itoa(byUser)},
		{"Failed", strconv.Itoa(failed)},
		{"Elapsed", sum.Elapsed.Round(time.Second).String()},
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]string{"Result", "Files"}, rows, []text.Align{text.AlignLeft, text.AlignRight}))

	if failed == 0 {
		return
	}
	var failures [][]string
	for _, r := range sum.Results {
		if r.Failed() {
			failures = append(failures, []string{filepath.Base(r.Path), r.ErrorMessage()})
		}
	}
	fmt.Fprintln(out, renderTable([]string{"Failed file", "Error"}, failures, nil))
}

func renderTable(headers []string, rows [][]string, aligns []text.Align) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if i < len(aligns) {
			align = aligns[i]
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    80,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
