package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/asshaltech/bapp-review/internal/models"
)

// FieldSpec names one evaluation field before its options are known.
type FieldSpec struct {
	ID       string
	Label    string
	FormName string
}

// FallbackOptions substitutes for any form field whose select box is missing
// or carries no usable options.
var FallbackOptions = []string{"Sesuai", "Tidak Sesuai", "Tidak Ada"}

// ParseFormOptions reads the evaluation form's select boxes for each known
// field. Option values are taken in document order; empty values are
// dropped. A field with no usable options gets the fallback set. The first
// option of each field is its compliant default and becomes the initial
// selection.
func ParseFormOptions(html string, mapping []FieldSpec) []models.EvaluationField {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		doc = nil
	}

	fields := make([]models.EvaluationField, 0, len(mapping))
	for _, spec := range mapping {
		var opts []string
		if doc != nil {
			sel := doc.Find(fmt.Sprintf(`select[name=%q]`, spec.FormName))
			sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
				if v, ok := opt.Attr("value"); ok && strings.TrimSpace(v) != "" {
					opts = append(opts, v)
				}
			})
		}
		if len(opts) == 0 {
			opts = append([]string(nil), FallbackOptions...)
		}
		fields = append(fields, models.EvaluationField{
			ID:       spec.ID,
			Label:    spec.Label,
			FormName: spec.FormName,
			Options:  opts,
			Selected: opts[0],
		})
	}
	return fields
}
