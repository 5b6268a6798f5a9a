package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const worklistHTML = `
<table class="table">
<tbody>
<tr>
  <td>1</td>
  <td>DAC</td>
  <td>01-05-2024</td>
  <td>Verifikator&nbsp;A</td>
  <td><button class="btn btn-link">BAPP/001/2024</button></td>
  <td><button class="btn btn-danger btn-sm">SN12345</button></td>
  <td>20100001</td>
  <td>SDN 1 JAKARTA</td>
  <td><a href="https://portal.example/form/555"><button class="btn btn-warning">Proses</button></a></td>
</tr>
<tr>
  <td>2</td>
  <td>LOGISTIK</td>
  <td>02-05-2024</td>
  <td>Verifikator B</td>
  <td><button class="btn btn-link">BAPP/002/2024</button></td>
  <td><button class="btn btn-success btn-sm">SN67890</button></td>
  <td>20100002</td>
  <td>SDN 2 BANDUNG</td>
  <td><button class="btn btn-secondary">Selesai</button></td>
</tr>
</tbody>
</table>
`

func TestParseWorklist(t *testing.T) {
	items := ParseWorklist(worklistHTML)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "1", first.No)
	assert.Equal(t, "DAC", first.Type)
	assert.Equal(t, "01-05-2024", first.Date)
	assert.Equal(t, "BAPP/001/2024", first.BAPPNumber)
	assert.True(t, first.NeedsSNCheck)
	assert.Equal(t, "SN12345", first.SerialNumber)
	assert.Equal(t, "20100001", first.NPSN)
	assert.Equal(t, "SDN 1 JAKARTA", first.SchoolName)
	assert.Equal(t, "555", first.ActionID)
	assert.Equal(t, "Proses", first.Status)

	second := items[1]
	assert.False(t, second.NeedsSNCheck)
	assert.Equal(t, "SN67890", second.SerialNumber)
	assert.Empty(t, second.ActionID)
	assert.Equal(t, "Selesai", second.Status)
}

func TestParseWorklistSkipsMalformedRows(t *testing.T) {
	html := `<tr><td>1</td><td>DAC</td></tr>`
	assert.Empty(t, ParseWorklist(html))
}

func TestParseWorklistEmptyInput(t *testing.T) {
	assert.Empty(t, ParseWorklist(""))
}

func TestCleanCell(t *testing.T) {
	assert.Equal(t, "SDN 1", cleanCell("  SDN&nbsp;1  "))
	assert.Equal(t, "", cleanCell(" &nbsp; "))
}
