package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/asshaltech/bapp-review/internal/models"
)

var receiptNumberRe = regexp.MustCompile(`(?i)No\.?\s*Resi\s*[:\n]?\s*([A-Z0-9]+)`)

// valueByLabel finds a <label> whose text contains labelText and returns the
// value of the sibling input or textarea under the same parent element.
func valueByLabel(doc *goquery.Document, labelText string) string {
	var value string
	doc.Find("label").EachWithBreak(func(_ int, label *goquery.Selection) bool {
		if !strings.Contains(strings.TrimSpace(label.Text()), labelText) {
			return true
		}
		field := label.Parent().Find("input, textarea").First()
		if field.Length() == 0 {
			return true
		}
		if v, ok := field.Attr("value"); ok && v != "" {
			value = v
		} else {
			value = strings.TrimSpace(field.Text())
		}
		return false
	})
	return value
}

// ParseDetail builds a DetailRecord from a DAC detail page. fallbackID is
// used when the page embeds no id of its own; the HTML-embedded id wins on
// conflict since it is the freshest.
func ParseDetail(html, fallbackID string) models.DetailRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.DetailRecord{ExtractedID: fallbackID}
	}

	record := models.DetailRecord{
		School: models.SchoolInfo{
			NPSN:        valueByLabel(doc, "NPSN"),
			Name:        valueByLabel(doc, "Nama Sekolah"),
			Address:     valueByLabel(doc, "Alamat"),
			Subdistrict: valueByLabel(doc, "Kecamatan"),
			District:    valueByLabel(doc, "Kabupaten"),
			Province:    valueByLabel(doc, "Provinsi"),
		},
		Item: models.ItemInfo{
			SerialNumber: valueByLabel(doc, "Serial Number"),
			Name:         valueByLabel(doc, "Nama Barang"),
		},
	}

	record.ReceiptNumber = valueByLabel(doc, "No. Resi")
	if record.ReceiptNumber == "" {
		record.ReceiptNumber = valueByLabel(doc, "No Resi")
	}
	if record.ReceiptNumber == "" {
		// Some detail pages render the receipt number as plain body text.
		if m := receiptNumberRe.FindStringSubmatch(doc.Text()); m != nil {
			record.ReceiptNumber = m[1]
		}
	}

	record.ExtractedID = fallbackID
	if id, ok := doc.Find(`button[onclick*="approvalFunc"]`).First().Attr("data-id"); ok && id != "" {
		record.ExtractedID = id
	}

	doc.Find(".card .card-body .col-6").Each(func(_ int, card *goquery.Selection) {
		img := card.Find("img").First()
		if img.Length() == 0 {
			return
		}
		title := strings.TrimSpace(card.Find(".card-header").First().Text())
		if title == "" {
			title = "Dokumentasi"
		}
		src, _ := img.Attr("src")
		record.Images = append(record.Images, models.ImageRef{Src: src, Title: title})
	})

	record.History = ParseHistory(doc)
	return record
}

// ParseHistory reads the approval history table when the detail page carries
// one. Each row contributes date, status, author and note cells in order.
func ParseHistory(doc *goquery.Document) []models.HistoryEntry {
	var entries []models.HistoryEntry
	doc.Find("table.history tbody tr, #history tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		entry := models.HistoryEntry{
			Date:   strings.TrimSpace(cells.Eq(0).Text()),
			Status: strings.TrimSpace(cells.Eq(1).Text()),
			User:   strings.TrimSpace(cells.Eq(2).Text()),
			Note:   strings.TrimSpace(cells.Eq(3).Text()),
		}
		entry.Accepted = isAcceptedStatus(entry.Status)
		entries = append(entries, entry)
	})
	return entries
}

// isAcceptedStatus buckets a history status into the acceptance column.
// Anything that does not read as an acceptance counts as a rejection.
func isAcceptedStatus(status string) bool {
	s := strings.ToLower(status)
	return strings.Contains(s, "setuju") || strings.Contains(s, "terima")
}
