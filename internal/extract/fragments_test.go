package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDataID(t *testing.T) {
	assert.Equal(t, "99", ExtractDataID(`<button class="btn" data-id="99">Detail</button>`))
	assert.Equal(t, "123", ExtractDataID(`<a data-id='123'>x</a>`))
	assert.Empty(t, ExtractDataID(`<button class="btn">Detail</button>`))
}

func TestExtractIDUser(t *testing.T) {
	html := `<input type="hidden" name="id_user" value="42">`
	assert.Equal(t, "42", ExtractIDUser(html))
	assert.Empty(t, ExtractIDUser(`<input type="hidden" name="npsn" value="1">`))
}

func TestExtractAdminName(t *testing.T) {
	html := `<div class="user-panel"><span class="admin-name">
		Budi Santoso
	</span></div>`
	assert.Equal(t, "Budi Santoso", ExtractAdminName(html))
	assert.Empty(t, ExtractAdminName(`<span class="user-name">Budi</span>`))
}
