// Package export writes the per-run report workbook.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipt-renamer/constants"
	"github.com/joseph-ayodele/receipt-renamer/internal/common"
	"github.com/joseph-ayodele/receipt-renamer/internal/entity"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

// Service turns run results into an XLSX workbook.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// RunReportXLSX returns a workbook (as bytes) with one row per input file and
// a summary sheet of counts per status.
func (s *Service) RunReportXLSX(results []entity.FileJobResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(resultsSheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Original File",
		"New Name",
		"Status",
		"Decision",
		"Confidence",
		"Flagged",
		"Date",
		"Provider",
		"Patient",
		"Amount",
		"Currency",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(resultsSheet, cell, h)
	}

	counts := map[constants.FileStatus]int{}
	row := 2
	for _, r := range results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(resultsSheet, cell, v)
		}

		write(1, filepath.Base(r.Path))
		write(2, r.Target)
		write(3, string(r.Status))
		write(4, string(r.Decision))
		if r.Decision != "" {
			write(5, r.Aggregate)
		}
		write(6, r.Flagged)
		if r.Record != nil {
			for col, field := range map[int]entity.Field{
				7:  entity.FieldDate,
				8:  entity.FieldProvider,
				9:  entity.FieldPatient,
				11: entity.FieldCurrency,
			} {
				if v, ok := r.Record.Value(field); ok {
					write(col, v)
				}
			}
			if r.Record.Amount != nil {
				write(10, r.Record.Amount.InexactFloat64())
			}
		}
		write(12, truncate(r.ErrorMessage(), 240))

		counts[r.Status]++
		row++
	}

	_ = f.SetColWidth(resultsSheet, "A", "B", 40) // names
	_ = f.SetColWidth(resultsSheet, "C", "D", 20) // status, decision
	_ = f.SetColWidth(resultsSheet, "E", "F", 12)
	_ = f.SetColWidth(resultsSheet, "G", "G", 12) // date
	_ = f.SetColWidth(resultsSheet, "H", "I", 28) // provider, patient
	_ = f.SetColWidth(resultsSheet, "J", "K", 12) // amount, currency
	_ = f.SetColWidth(resultsSheet, "L", "L", 60) // error
	_ = f.SetPanes(resultsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	_ = f.SetCellValue(summarySheet, "A1", "Status")
	_ = f.SetCellValue(summarySheet, "B1", "Files")
	summaryRow := 2
	for _, status := range statusOrder {
		n := counts[status]
		if n == 0 {
			continue
		}
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", summaryRow), string(status))
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", summaryRow), n)
		summaryRow++
	}
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", summaryRow), "total")
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", summaryRow), len(results))
	_ = f.SetColWidth(summarySheet, "A", "A", 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Debug("export.xlsx.ok",
		"rows", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteRunReport writes the workbook to path.
func (s *Service) WriteRunReport(path string, results []entity.FileJobResult) error {
	b, err := s.RunReportXLSX(results)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return common.WrapError(err, "write report")
	}
	return nil
}

var statusOrder = []constants.FileStatus{
	constants.StatusRenamed,
	constants.StatusReviewedAndEdited,
	constants.StatusSkippedNonReceipt,
	constants.StatusSkippedByUser,
	constants.StatusSkippedError,
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
