// Package report exports the decision audit log as an Excel workbook for
// offline reconciliation.
package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/asshaltech/bapp-review/internal/models"
)

// DecisionSource lists recorded decisions, newest first.
type DecisionSource interface {
	List(ctx context.Context, limit int) ([]*models.DecisionLogEntry, error)
}

// Exporter writes the decision log to an .xlsx workbook.
type Exporter struct {
	decisions DecisionSource
	logger    *zap.Logger
}

// NewExporter creates a decision log exporter.
func NewExporter(decisions DecisionSource, logger *zap.Logger) *Exporter {
	return &Exporter{decisions: decisions, logger: logger}
}

var headerRow = []string{
	"Tanggal", "Serial Number", "NPSN", "Nama Sekolah", "No. Resi", "Status", "Catatan",
}

// Export builds the workbook and returns its bytes.
func (e *Exporter) Export(ctx context.Context, limit int) ([]byte, error) {
	entries, err := e.decisions.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load decision log: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, title := range headerRow {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, fmt.Errorf("failed to write header cell: %w", err)
		}
	}

	for i, entry := range entries {
		row := i + 2
		values := []any{
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			entry.SerialNumber,
			entry.NPSN,
			entry.SchoolName,
			entry.ReceiptNumber,
			statusLabel(entry.Status),
			entry.Note,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	e.logger.Info("Decision log exported", zap.Int("rows", len(entries)))
	return buf.Bytes(), nil
}

func statusLabel(status int) string {
	switch status {
	case models.StatusAccept:
		return "Terima"
	case models.StatusReject:
		return "Tolak"
	default:
		return fmt.Sprintf("Status %d", status)
	}
}
