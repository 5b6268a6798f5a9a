package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailHTML = `
<html><body>
<div class="form-group"><label>NPSN</label><input type="text" value="20100001"></div>
<div class="form-group"><label>Nama Sekolah</label><input type="text" value="SDN 1 JAKARTA"></div>
<div class="form-group"><label>Alamat</label><input type="text" value="Jl. Merdeka 1"></div>
<div class="form-group"><label>Serial Number</label><input type="text" value="SN12345"></div>
<div class="form-group"><label>Nama Barang</label><input type="text" value="Laptop"></div>
<div class="form-group"><label>No. Resi</label><input type="text" value="JNE8881"></div>
<button class="btn btn-primary" onclick="approvalFunc(this)" data-id="99">Simpan</button>
<div class="card"><div class="card-body"><div class="row">
  <div class="col-6"><div class="card-header">GEO TAG</div><img src="/upload/geo.jpg"></div>
  <div class="col-6"><img src="/upload/unit.jpg"></div>
</div></div></div>
<table id="history"><tbody>
<tr><td>01-05-2024</td><td>Disetujui</td><td>admin</td><td>-</td></tr>
<tr><td>02-05-2024</td><td>Ditolak</td><td>verif2</td><td>(5A) Geo Tagging tidak sesuai</td></tr>
</tbody></table>
</body></html>
`

func TestParseDetail(t *testing.T) {
	record := ParseDetail(detailHTML, "11")

	assert.Equal(t, "20100001", record.School.NPSN)
	assert.Equal(t, "SDN 1 JAKARTA", record.School.Name)
	assert.Equal(t, "Jl. Merdeka 1", record.School.Address)
	assert.Equal(t, "SN12345", record.Item.SerialNumber)
	assert.Equal(t, "Laptop", record.Item.Name)
	assert.Equal(t, "JNE8881", record.ReceiptNumber)

	// The id embedded in the page wins over the fallback.
	assert.Equal(t, "99", record.ExtractedID)

	require.Len(t, record.Images, 2)
	assert.Equal(t, "/upload/geo.jpg", record.Images[0].Src)
	assert.Equal(t, "GEO TAG", record.Images[0].Title)
	assert.Equal(t, "Dokumentasi", record.Images[1].Title)

	require.Len(t, record.History, 2)
	assert.True(t, record.History[0].Accepted)
	assert.False(t, record.History[1].Accepted)
	assert.Equal(t, "(5A) Geo Tagging tidak sesuai", record.History[1].Note)
}

func TestParseDetailFallbackID(t *testing.T) {
	record := ParseDetail(`<html><body><p>kosong</p></body></html>`, "42")
	assert.Equal(t, "42", record.ExtractedID)
	assert.Empty(t, record.Images)
	assert.Empty(t, record.History)
}

func TestParseDetailReceiptFromBodyText(t *testing.T) {
	html := `<html><body><p>Pengiriman No. Resi: JNE9992 sudah diterima</p></body></html>`
	record := ParseDetail(html, "")
	assert.Equal(t, "JNE9992", record.ReceiptNumber)
}

func TestIsAcceptedStatus(t *testing.T) {
	assert.True(t, isAcceptedStatus("Disetujui"))
	assert.True(t, isAcceptedStatus("Terima"))
	assert.False(t, isAcceptedStatus("Ditolak"))
	assert.False(t, isAcceptedStatus("Proses"))
}
