package review

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/asshaltech/bapp-review/internal/extract"
	"github.com/asshaltech/bapp-review/internal/models"
	"github.com/asshaltech/bapp-review/internal/portal"
)

// TaskQueue is the slice of the queue controller the pipeline drives.
type TaskQueue interface {
	Current() *models.WorklistItem
	CurrentDetail() *models.DetailRecord
	Fields() []models.EvaluationField
	IDUser() string
	Advance()
	Remaining() int
}

// SessionManager provides tokens and silent refresh for both portals.
type SessionManager interface {
	Token(p models.Portal) string
	EnsureFresh(ctx context.Context, p models.Portal) (*models.Session, error)
}

// DatasourceWriter is the slice of the Datasource client the pipeline uses.
type DatasourceWriter interface {
	SubmitEvaluation(ctx context.Context, token string, payload map[string]string) error
	FetchViewForm(ctx context.Context, token, actionID string) (string, error)
}

// DACWriter is the slice of the DAC client the pipeline uses.
type DACWriter interface {
	SaveApproval(ctx context.Context, token string, save portal.SaveApprovalRequest) error
	ListByNPSN(ctx context.Context, token, npsn string) ([]portal.SchoolRecord, error)
}

// DecisionLog records completed saves. May be nil.
type DecisionLog interface {
	Create(ctx context.Context, e *models.DecisionLogEntry) error
}

// ErrNotReady means the pipeline preconditions were not met; the submission
// is silently dropped with no state change.
var ErrNotReady = errors.New("submission preconditions not met")

// ErrNoPendingSave means ConfirmNote was called without a deferred save.
var ErrNoPendingSave = errors.New("no pending save awaiting note confirmation")

// SubmitOptions carries the per-submission reviewer inputs.
type SubmitOptions struct {
	// VerificationDate is the tgl_bapp value, YYYY-MM-DD.
	VerificationDate string
	// ManualSN is the reviewer-entered BAPP serial, used when the barcode
	// field is non-compliant.
	ManualSN string
	// ManualNote defers the DAC save until the reviewer confirms (and may
	// edit) the rejection note.
	ManualNote bool
}

// SubmitResult reports what the pipeline did.
type SubmitResult struct {
	Decision models.Decision `json:"decision"`
	// Note is the authoritative rejection note read back from the
	// Datasource view page after submission. Empty means approved,
	// regardless of the reviewer's form selections.
	Note string `json:"note"`
	// Status is the DAC status derived from Note.
	Status int `json:"status"`
	// Advanced is true when the cursor moved optimistically before the
	// round-trip completed.
	Advanced bool `json:"advanced"`
	// NeedsNoteConfirm is true when the DAC save is held pending the
	// reviewer's note edit.
	NeedsNoteConfirm bool `json:"needs_note_confirm"`
	// DACSaveError carries a failed DAC save. The Datasource submission
	// is not rolled back; reconciliation is manual.
	DACSaveError string `json:"dac_save_error,omitempty"`
	// Saved is true when the decision reached DAC.
	Saved bool `json:"saved"`
}

// DoubleDataWarning flags multiple DAC records sharing one NPSN.
type DoubleDataWarning struct {
	NPSN          string   `json:"npsn"`
	Count         int      `json:"count"`
	SerialNumbers []string `json:"serial_numbers"`
}

// pendingSave is a computed DAC save deferred for note confirmation.
type pendingSave struct {
	save portal.SaveApprovalRequest
	item models.WorklistItem
}

// Pipeline orchestrates the multi-step write path for a reviewer decision:
// submit evaluation, read back the authoritative rejection note, refresh the
// DAC session, save the final status. Concurrent submissions are not a
// supported scenario; the caller gates the submit surface while one is
// pending.
type Pipeline struct {
	sessions SessionManager
	ds       DatasourceWriter
	dac      DACWriter
	queue    TaskQueue
	log      DecisionLog
	logger   *zap.Logger

	mu      sync.Mutex
	pending *pendingSave
}

// NewPipeline creates a decision submission pipeline.
func NewPipeline(sessions SessionManager, ds DatasourceWriter, dac DACWriter, queue TaskQueue, log DecisionLog, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		sessions: sessions,
		ds:       ds,
		dac:      dac,
		queue:    queue,
		log:      log,
		logger:   logger,
	}
}

// Submit runs the pipeline for the current task.
func (p *Pipeline) Submit(ctx context.Context, opts SubmitOptions) (*SubmitResult, error) {
	// Step 1: validate. Missing preconditions abort silently.
	dsToken := p.sessions.Token(models.PortalDatasource)
	item := p.queue.Current()
	detail := p.queue.CurrentDetail()
	if dsToken == "" || item == nil || detail == nil || p.queue.Remaining() == 0 {
		return nil, ErrNotReady
	}

	// Step 2: compute the provisional decision from the form.
	fields := p.queue.Fields()
	idUser := p.queue.IDUser()
	decision := ComputeDecision(fields)
	result := &SubmitResult{Decision: decision}

	// Step 3: optimistic advance. The reviewer keeps working while the
	// round-trip completes; a late failure is reported without reverting.
	// With the manual-note override the advance waits for ConfirmNote.
	if !opts.ManualNote {
		p.queue.Advance()
		result.Advanced = true
	}

	// Step 4: submit the evaluation form to Datasource.
	payload := BuildSubmitPayload(*item, fields, idUser, opts.VerificationDate, opts.ManualSN)
	if err := p.ds.SubmitEvaluation(ctx, dsToken, payload); err != nil {
		return result, fmt.Errorf("failed to submit evaluation: %w", err)
	}

	// Step 5: re-fetch the view page; its rejection note, not the form
	// selections, decides the status saved to DAC.
	note := ""
	if html, err := p.ds.FetchViewForm(ctx, dsToken, item.ActionID); err != nil {
		p.logger.Warn("Failed to fetch view page for rejection note",
			zap.String("action_id", item.ActionID), zap.Error(err))
	} else {
		note = extract.ParseRejectionNote(html)
	}
	result.Note = note
	result.Status = models.StatusAccept
	if note != "" {
		result.Status = models.StatusReject
	}

	// Step 6: opportunistic DAC re-auth. Upstream sessions expire
	// independently; on refresh failure the previously cached token is
	// still tried.
	dacToken := p.sessions.Token(models.PortalDAC)
	if fresh, err := p.sessions.EnsureFresh(ctx, models.PortalDAC); err != nil {
		p.logger.Warn("DAC session refresh failed, using cached session", zap.Error(err))
	} else {
		dacToken = fresh.Token
	}

	save := portal.SaveApprovalRequest{
		Status:        result.Status,
		ID:            detail.ExtractedID,
		NPSN:          detail.School.NPSN,
		ReceiptNumber: detail.ReceiptNumber,
		Note:          note,
	}

	// Step 7: save to DAC, or hold for note confirmation.
	if opts.ManualNote {
		p.mu.Lock()
		p.pending = &pendingSave{save: save, item: *item}
		p.mu.Unlock()
		result.NeedsNoteConfirm = true
		return result, nil
	}

	p.saveToDAC(ctx, dacToken, save, *item, result)
	return result, nil
}

// ConfirmNote completes a deferred save with the reviewer-edited note, then
// performs the deferred cursor advance.
func (p *Pipeline) ConfirmNote(ctx context.Context, editedNote string) (*SubmitResult, error) {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()
	if pending == nil {
		return nil, ErrNoPendingSave
	}

	save := pending.save
	save.Note = editedNote

	result := &SubmitResult{Note: editedNote, Status: save.Status}

	dacToken := p.sessions.Token(models.PortalDAC)
	if fresh, err := p.sessions.EnsureFresh(ctx, models.PortalDAC); err != nil {
		p.logger.Warn("DAC session refresh failed, using cached session", zap.Error(err))
	} else {
		dacToken = fresh.Token
	}

	p.saveToDAC(ctx, dacToken, save, pending.item, result)

	p.queue.Advance()
	result.Advanced = true
	return result, nil
}

// saveToDAC performs the final status write and records the audit entry. A
// missing record id or session skips the save, mirroring a detail-less
// item; a failed save is reported but never rolled back.
func (p *Pipeline) saveToDAC(ctx context.Context, token string, save portal.SaveApprovalRequest, item models.WorklistItem, result *SubmitResult) {
	if token == "" || save.ID == "" {
		p.logger.Warn("Skipping DAC save",
			zap.Bool("has_session", token != ""),
			zap.String("extracted_id", save.ID))
		return
	}

	if err := p.dac.SaveApproval(ctx, token, save); err != nil {
		p.logger.Error("Failed to save decision to DAC",
			zap.String("extracted_id", save.ID), zap.Error(err))
		result.DACSaveError = err.Error()
		return
	}
	result.Saved = true

	if p.log != nil {
		entry := &models.DecisionLogEntry{
			SerialNumber:  item.SerialNumber,
			NPSN:          save.NPSN,
			SchoolName:    item.SchoolName,
			ExtractedID:   save.ID,
			ReceiptNumber: save.ReceiptNumber,
			Status:        save.Status,
			Note:          save.Note,
		}
		if err := p.log.Create(ctx, entry); err != nil {
			p.logger.Warn("Failed to record decision log entry", zap.Error(err))
		}
	}
}

// CheckDoubleData queries DAC for every record sharing an NPSN and warns
// when more than one exists. The warning is advisory; it never blocks the
// pipeline.
func (p *Pipeline) CheckDoubleData(ctx context.Context, npsn string) (*DoubleDataWarning, error) {
	token := p.sessions.Token(models.PortalDAC)
	if token == "" || npsn == "" {
		return nil, nil
	}

	records, err := p.dac.ListByNPSN(ctx, token, npsn)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate data: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	warning := &DoubleDataWarning{NPSN: npsn, Count: len(records)}
	for _, r := range records {
		warning.SerialNumbers = append(warning.SerialNumbers, r.SerialNumber)
	}
	p.logger.Warn("Multiple DAC records share NPSN",
		zap.String("npsn", npsn),
		zap.Int("count", len(records)))
	return warning, nil
}
