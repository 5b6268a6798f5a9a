package models

import "time"

// Approval status codes saved to DAC.
const (
	StatusAccept = 2
	StatusReject = 3
)

// Decision is the computed outcome of a review. It is transient: computed
// per submit action, never stored as-is.
type Decision struct {
	// IsDefault is true when every evaluation field equals its first
	// (compliant) option.
	IsDefault bool `json:"is_default"`
	// Status is the provisional DAC status derived from the form
	// (2 accept, 3 reject). The authoritative status saved to DAC is
	// re-derived from the upstream rejection note after submission.
	Status int `json:"status"`
	// Note is the rejection note assembled from the reason catalog,
	// newline-joined in field order. Empty for an all-default form.
	Note string `json:"note"`
}

// DecisionLogEntry is the audit record persisted after each completed
// save to DAC.
type DecisionLogEntry struct {
	ID            int64     `json:"id"`
	SerialNumber  string    `json:"serial_number"`
	NPSN          string    `json:"npsn"`
	SchoolName    string    `json:"nama_sekolah"`
	ExtractedID   string    `json:"extracted_id"`
	ReceiptNumber string    `json:"resi"`
	Status        int       `json:"status"`
	Note          string    `json:"note"`
	CreatedAt     time.Time `json:"created_at"`
}
