package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PihakPertamaNote is the canned rejection fragment appended when the view
// page flags a first-party signer violation.
const PihakPertamaNote = "(1AN) Pihak pertama hanya boleh dari kepala sekolah/wakil kepala sekolah/guru/pengajar/operator sekolah"

var pihakPertamaRe = regexp.MustCompile(`(?i)Pihak pertama`)

// ParseRejectionNote reads the rejection reason from a Datasource view page.
// An empty result means the submission was approved. Two sources feed the
// note: the description textarea, and any danger alert matching the
// first-party signer pattern (appended space-joined when a note already
// exists).
func ParseRejectionNote(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	note := ""
	desc := doc.Find(`textarea[name="description"]`).First()
	if desc.Length() > 0 {
		if v, ok := desc.Attr("value"); ok && v != "" {
			note = v
		} else {
			note = strings.TrimSpace(desc.Text())
		}
	}

	violation := false
	doc.Find(".alert.alert-danger").EachWithBreak(func(_ int, alert *goquery.Selection) bool {
		if pihakPertamaRe.MatchString(alert.Text()) {
			violation = true
			return false
		}
		return true
	})

	if violation {
		if note != "" {
			note = note + " " + PihakPertamaNote
		} else {
			note = PihakPertamaNote
		}
	}
	return note
}
