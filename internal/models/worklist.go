package models

// WorklistItem is one row of the Datasource worklist table. Items are
// immutable once parsed; the queue holds an ordered list plus a cursor.
type WorklistItem struct {
	No           string `json:"no"`
	Type         string `json:"type"`
	Date         string `json:"date"`
	SerialNumber string `json:"serial_number"`
	NPSN         string `json:"npsn"`
	SchoolName   string `json:"nama_sekolah"`
	BAPPNumber   string `json:"no_bapp"`
	// ActionID is the Datasource-internal id used to fetch the item's
	// detail and form pages. Empty when the row carries no /form link.
	ActionID string `json:"action_id"`
	Status   string `json:"status"`
	// NeedsSNCheck is set when the worklist row flags the provider serial
	// number for manual checking (danger badge on the SN cell).
	NeedsSNCheck bool `json:"cek_sn_penyedia"`
}

// SchoolInfo is the school block of a detail record.
type SchoolInfo struct {
	NPSN        string `json:"npsn"`
	Name        string `json:"nama_sekolah"`
	Address     string `json:"alamat"`
	Subdistrict string `json:"kecamatan"`
	District    string `json:"kabupaten"`
	Province    string `json:"provinsi"`
}

// ItemInfo is the delivered-equipment block of a detail record.
type ItemInfo struct {
	SerialNumber string `json:"serial_number"`
	Name         string `json:"nama_barang"`
}

// ImageRef points at one documentation photo in the detail page gallery.
type ImageRef struct {
	Src   string `json:"src"`
	Title string `json:"title"`
}

// HistoryEntry is one row of the approval history log on a detail page.
type HistoryEntry struct {
	Date   string `json:"date"`
	Status string `json:"status"`
	User   string `json:"user"`
	Note   string `json:"note"`
	// Accepted buckets the entry for display: true when the status text
	// reads as an acceptance, false for everything else.
	Accepted bool `json:"accepted"`
}

// DetailRecord is the structured form of a DAC detail page. Superseded
// whenever the task changes.
type DetailRecord struct {
	School  SchoolInfo     `json:"school"`
	Item    ItemInfo       `json:"item"`
	Images  []ImageRef     `json:"images"`
	History []HistoryEntry `json:"history"`
	// ExtractedID is DAC's internal record id. The id embedded in the
	// detail HTML wins over the one resolved via the approval search.
	ExtractedID   string `json:"extracted_id"`
	ReceiptNumber string `json:"resi"`
}

// EvaluationField is one reviewer-selectable field of the Datasource
// evaluation form. Options come from the form page's select boxes, in
// document order; the first option is the field's compliant default.
type EvaluationField struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	FormName string   `json:"name"`
	Options  []string `json:"options"`
	Selected string   `json:"selected"`
}

// IsDefault reports whether the field still holds its first (compliant)
// option.
func (f *EvaluationField) IsDefault() bool {
	return len(f.Options) > 0 && f.Selected == f.Options[0]
}
