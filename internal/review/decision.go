package review

import (
	"strings"

	"github.com/asshaltech/bapp-review/internal/models"
)

// ComputeDecision derives the provisional decision from the current field
// selections. An all-default form accepts; anything else rejects with a
// note assembled from the reason catalog, newline-joined in field order.
func ComputeDecision(fields []models.EvaluationField) models.Decision {
	isDefault := true
	var reasons []string

	for i := range fields {
		f := &fields[i]
		if !f.IsDefault() {
			isDefault = false
		}
		if byValue, ok := ReasonCatalog[f.ID]; ok {
			if reason, ok := byValue[f.Selected]; ok {
				reasons = append(reasons, reason)
			}
		}
	}

	decision := models.Decision{
		IsDefault: isDefault,
		Status:    models.StatusAccept,
		Note:      strings.Join(reasons, "\n"),
	}
	if !isDefault {
		decision.Status = models.StatusReject
	}
	return decision
}

// BAPPSerial derives the sn_bapp submission value: the system-recorded
// serial number when the barcode field reads "Ada" or "Sesuai", otherwise
// the reviewer-entered manual value.
func BAPPSerial(fields []models.EvaluationField, systemSN, manualSN string) string {
	for i := range fields {
		if fields[i].ID == "O" {
			if fields[i].Selected == "Ada" || fields[i].Selected == "Sesuai" {
				return systemSN
			}
			return manualSN
		}
	}
	return systemSN
}

// BuildSubmitPayload assembles the full multipart payload for the
// Datasource evaluation submission.
func BuildSubmitPayload(
	item models.WorklistItem,
	fields []models.EvaluationField,
	idUser, verificationDate, manualSN string,
) map[string]string {
	payload := map[string]string{
		"id_user":         idUser,
		"npsn":            item.NPSN,
		"sn_penyedia":     item.SerialNumber,
		"cek_sn_penyedia": "0",
		"id_update":       item.ActionID,
		"no_bapp":         item.BAPPNumber,
		"tgl_bapp":        verificationDate,
		"sn_bapp":         BAPPSerial(fields, item.SerialNumber, manualSN),
	}
	for i := range fields {
		payload[fields[i].FormName] = fields[i].Selected
	}
	return payload
}
