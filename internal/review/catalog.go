// Package review computes reviewer decisions and drives the cross-portal
// submission pipeline.
package review

import "github.com/asshaltech/bapp-review/internal/extract"

// FieldMapping lists the evaluation form fields in submission order. The
// form names match the Datasource select-box names exactly.
var FieldMapping = []extract.FieldSpec{
	{ID: "F", Label: "TGL BAPP", FormName: "ket_tgl_bapp"},
	{ID: "G", Label: "GEO TAGGING", FormName: "geo_tag"},
	{ID: "H", Label: "FOTO SEKOLAH/PAPAN NAMA", FormName: "f_papan_identitas"},
	{ID: "I", Label: "FOTO BOX & PIC", FormName: "f_box_pic"},
	{ID: "J", Label: "FOTO KELENGKAPAN UNIT", FormName: "f_unit"},
	{ID: "K", Label: "DXDIAG", FormName: "spesifikasi_dxdiag"},
	{ID: "O", Label: "BARCODE SN BAPP", FormName: "bc_bapp_sn"},
	{ID: "Q", Label: "BAPP HAL 1", FormName: "bapp_hal1"},
	{ID: "R", Label: "BAPP HAL 2", FormName: "bapp_hal2"},
	{ID: "S", Label: "TTD BAPP", FormName: "nm_ttd_bapp"},
	{ID: "T", Label: "STEMPEL", FormName: "stempel"},
}

// ReasonCatalog maps a field id and a non-compliant option value to the
// coded rejection reason recorded on DAC. Values absent from the catalog
// contribute no reason even when non-default.
var ReasonCatalog = map[string]map[string]string{
	"G": {
		"Tidak sesuai":         "(5A) Geo Tagging tidak sesuai",
		"Tidak ada":            "(5B) Geo Tagging tidak ada",
		"Tidak terlihat jelas": "(5C) Geo Tagging tidak terlihat jelas",
	},
	"H": {
		"Tidak sesuai":         "(4A) Foto sekolah tidak sesuai",
		"Tidak ada":            "(4B) Foto sekolah tidak ada",
		"Tidak terlihat jelas": "(4E) Foto sekolah tidak terlihat jelas",
	},
	"I": {
		"Tidak sesuai": "(4C) Foto Box dan PIC tidak sesuai",
		"Tidak ada":    "(4D) Foto Box dan PIC tidak ada",
	},
	"J": {
		"Tidak sesuai": "(2B) Foto kelengkapan Laptop tidak sesuai",
		"Tidak ada":    "(2A) Foto kelengkapan Laptop tidak ada",
	},
	"K": {
		"Tidak sesuai":         "(6A) DxDiag tidak sesuai",
		"Tidak ada":            "(6B) DxDiag tidak ada",
		"Tidak terlihat jelas": "(6C) DxDiag tidak terlihat jelas",
	},
	"O": {
		"Tidak sesuai":         "(1AI) Barcode SN pada BAPP tidak sesuai dengan data web DAC",
		"Tidak ada":            "(1AF) Barcode SN pada BAPP tidak ada",
		"Tidak terlihat jelas": "(1AG) Barcode SN pada BAPP tidak terlihat jelas",
	},
	"Q": {
		"Ceklis tidak lengkap":          "(1D) Ceklis BAPP tidak lengkap pada halaman 1",
		"Tidak Sesuai/Rusak/Tidak Ada":  "(1Q) Ceklis BAPP tidak sesuai/rusak/tidak ada pada halaman 1",
		"Tidak terlihat jelas":          "(1L) BAPP Halaman 1 tidak terlihat jelas",
		"Diedit":                        "(1S) BAPP Hal 1 tidak boleh diedit digital",
		"Tidak ada":                     "(1W) BAPP Hal 1 tidak ada",
		"Data tidak lengkap":            "(1N) Data BAPP halaman 1 tidak lengkap",
		"Double ceklis":                 "(1I) Double ceklis pada halaman 1 BAPP",
		"Data BAPP sekolah tidak sesuai": "(1K) Data BAPP sekolah tidak sesuai",
		"BAPP terpotong":                "(1AL) BAPP Halaman 1 terpotong",
		"Pihak pertama bukan dari tenaga pendidik": "(1AN) Pihak pertama hanya boleh dari kepala sekolah/wakil kepala sekolah/guru/pengajar/operator sekolah",
	},
	"R": {
		"Ceklis tidak lengkap":               "(1E) Ceklis BAPP tidak lengkap pada halaman 2",
		"Ceklis Belum Dapat Diterima":        "(1Y) Ceklis Belum Dapat Diterima",
		"Tidak terlihat jelas":               "(1M) BAPP Halaman 2 tidak terlihat jelas",
		"Diedit":                             "(1T) BAPP Hal 2 tidak boleh diedit digital",
		"Tidak ada":                          "(1X) BAPP Hal 2 tidak ada",
		"Tanggal tidak ada":                  "(1F) Tanggal pada BAPP hal 2 tidak ada",
		"Tanggal tidak konsisten":            "(1Z) Tanggal pada BAPP hal 2 tidak konsisten",
		"Tidak ada paraf":                    "(1B) Simpulan BAPP pada hal 2 belum diparaf",
		"Double ceklis":                      "(1AK) Double ceklis pada halaman 2 BAPP",
		"Ceklis tidak sesuai/rusak/tidak ada": "(1AJ) Ceklis BAPP hal 2, terdapat ceklis TIDAK SESUAI/TIDAK ADA",
		"BAPP terpotong":                     "(1AM) BAPP Halaman 2 terpotong",
	},
	"S": {
		"Tidak konsisten": "(1H) Data penanda tangan pada halaman 1 dan halaman 2 BAPP tidak konsisten",
		"TTD tidak ada":   "(1G) Tidak ada tanda tangan dari pihak sekolah atau pihak kedua",
		"Tidak ada nama terang pada bagian tanda tangan": "(1AH) Tidak ada nama terang pada bagian tanda tangan",
	},
	"T": {
		"Tidak sesuai":         "(1O) Stempel pada BAPP halaman 2 tidak sesuai dengan sekolahnya",
		"Tidak ada":            "(1P) Stempel tidak ada",
		"Tidak terlihat jelas": "(1AD) Stempel tidak terlihat",
	},
}
