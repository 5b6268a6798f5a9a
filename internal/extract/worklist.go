// Package extract converts upstream portal HTML into the canonical data
// model. All brittle parsing and regex logic lives here so upstream markup
// drift has a single failure point. Every function is pure: no I/O, and a
// missing element yields a zero value instead of an error.
package extract

import (
	"regexp"
	"strings"

	"github.com/asshaltech/bapp-review/internal/models"
)

// worklistRowRe matches one worklist table row cell-by-cell. Groups:
// 1 order number, 2 type, 3 date, 4 verifier, 5 BAPP number (button text),
// 6 SN badge class modifier, 7 serial number (badge button text), 8 NPSN,
// 9 school name, 10 optional /form/{id} link id, 11 status button text.
// Rows missing the closing </tr> still match; some upstream rows omit it.
var worklistRowRe = regexp.MustCompile(
	`<tr[^>]*>[\s\S]*?` +
		`<td[^>]*>\s*(\d+)\s*</td>[\s\S]*?` +
		`<td[^>]*>([\s\S]*?)</td>[\s\S]*?` +
		`<td[^>]*>([\s\S]*?)</td>[\s\S]*?` +
		`<td[^>]*>([\s\S]*?)</td>[\s\S]*?` +
		`<td[^>]*>[\s\S]*?>([\s\S]*?)</button>[\s\S]*?` +
		`<td[^>]*>[\s\S]*?class="[^"]*btn-(danger|success|warning|primary|info)[^"]*"[^>]*>([\s\S]*?)</button>[\s\S]*?` +
		`<td[^>]*>\s*([\s\S]*?)\s*</td>[\s\S]*?` +
		`<td[^>]*>\s*([\s\S]*?)\s*</td>[\s\S]*?` +
		`<td[^>]*>\s*(?:<a[^>]*href="[^"]*/form/(\d+)")?[\s\S]*?<button[^>]*>\s*([\s\S]*?)\s*</button>`)

// cleanCell normalizes a scraped table cell: &nbsp; entities become spaces
// and surrounding whitespace is trimmed.
func cleanCell(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "&nbsp;", " "))
}

// ParseWorklist scans row-structured HTML for worklist items. A row
// contributes only if it matches the full expected cell sequence; rows that
// do not match are skipped, never partially parsed.
func ParseWorklist(html string) []models.WorklistItem {
	matches := worklistRowRe.FindAllStringSubmatch(html, -1)
	items := make([]models.WorklistItem, 0, len(matches))
	for _, m := range matches {
		items = append(items, models.WorklistItem{
			No:           cleanCell(m[1]),
			Type:         cleanCell(m[2]),
			Date:         cleanCell(m[3]),
			BAPPNumber:   cleanCell(m[5]),
			NeedsSNCheck: cleanCell(m[6]) == "danger",
			SerialNumber: cleanCell(m[7]),
			NPSN:         cleanCell(m[8]),
			SchoolName:   cleanCell(m[9]),
			ActionID:     cleanCell(m[10]),
			Status:       cleanCell(m[11]),
		})
	}
	return items
}
