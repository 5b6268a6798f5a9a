package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/asshaltech/bapp-review/internal/models"
)

// DecisionRepository records every completed DAC save for auditing and the
// Excel export. A failed insert never blocks the pipeline.
type DecisionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDecisionRepository creates a new decision log repository.
func NewDecisionRepository(db *sql.DB, logger *zap.Logger) *DecisionRepository {
	return &DecisionRepository{db: db, logger: logger}
}

// Create appends one decision log entry.
func (r *DecisionRepository) Create(ctx context.Context, e *models.DecisionLogEntry) error {
	query := `
		INSERT INTO decision_log (
			serial_number, npsn, nama_sekolah, extracted_id, resi, status, note
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		e.SerialNumber, e.NPSN, e.SchoolName, e.ExtractedID, e.ReceiptNumber, e.Status, e.Note)
	if err != nil {
		r.logger.Error("Failed to record decision", zap.String("serial_number", e.SerialNumber), zap.Error(err))
		return fmt.Errorf("failed to record decision: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// List returns decision log entries, newest first.
func (r *DecisionRepository) List(ctx context.Context, limit int) ([]*models.DecisionLogEntry, error) {
	if limit <= 0 {
		limit = 1000
	}
	query := `
		SELECT id, serial_number, npsn, nama_sekolah, extracted_id, resi, status, note, created_at
		FROM decision_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var entries []*models.DecisionLogEntry
	for rows.Next() {
		var e models.DecisionLogEntry
		if err := rows.Scan(&e.ID, &e.SerialNumber, &e.NPSN, &e.SchoolName,
			&e.ExtractedID, &e.ReceiptNumber, &e.Status, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision row: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
