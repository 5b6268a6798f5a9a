package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/asshaltech/bapp-review/internal/models"
)

type fakeDecisionSource struct {
	entries []*models.DecisionLogEntry
	err     error
}

func (s *fakeDecisionSource) List(ctx context.Context, limit int) ([]*models.DecisionLogEntry, error) {
	return s.entries, s.err
}

func TestExport(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	source := &fakeDecisionSource{entries: []*models.DecisionLogEntry{
		{
			SerialNumber:  "SN1",
			NPSN:          "100",
			SchoolName:    "SDN 1 JAKARTA",
			ReceiptNumber: "JNE8881",
			Status:        models.StatusAccept,
			Note:          "",
			CreatedAt:     created,
		},
		{
			SerialNumber:  "SN2",
			NPSN:          "200",
			SchoolName:    "SDN 2 BANDUNG",
			ReceiptNumber: "JNE8882",
			Status:        models.StatusReject,
			Note:          "(5B) Geo Tagging tidak ada",
			CreatedAt:     created,
		},
	}}

	data, err := NewExporter(source, zap.NewNop()).Export(context.Background(), 0)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	header, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Tanggal", header)

	sn, _ := f.GetCellValue(sheet, "B2")
	assert.Equal(t, "SN1", sn)
	status, _ := f.GetCellValue(sheet, "F2")
	assert.Equal(t, "Terima", status)

	status2, _ := f.GetCellValue(sheet, "F3")
	assert.Equal(t, "Tolak", status2)
	note2, _ := f.GetCellValue(sheet, "G3")
	assert.Equal(t, "(5B) Geo Tagging tidak ada", note2)
}

func TestExportSourceError(t *testing.T) {
	source := &fakeDecisionSource{err: errors.New("db closed")}
	_, err := NewExporter(source, zap.NewNop()).Export(context.Background(), 0)
	assert.Error(t, err)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Terima", statusLabel(models.StatusAccept))
	assert.Equal(t, "Tolak", statusLabel(models.StatusReject))
	assert.Equal(t, "Status 7", statusLabel(7))
}
