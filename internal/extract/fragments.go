package extract

import "regexp"

var (
	dataIDRe    = regexp.MustCompile(`data-id=['"]([^'"]+)['"]`)
	idUserRe    = regexp.MustCompile(`name=['"]id_user['"][^>]*?value=['"]([^'"]+)['"]`)
	adminNameRe = regexp.MustCompile(`(?is)<span\s+class="admin-name">\s*(.*?)\s*</span>`)
)

// ExtractDataID pulls the DAC record id out of the HTML snippet embedded in
// an approval search result row.
func ExtractDataID(snippet string) string {
	if m := dataIDRe.FindStringSubmatch(snippet); m != nil {
		return m[1]
	}
	return ""
}

// ExtractIDUser reads the hidden id_user input embedded in a Datasource form
// page.
func ExtractIDUser(html string) string {
	if m := idUserRe.FindStringSubmatch(html); m != nil {
		return m[1]
	}
	return ""
}

// ExtractAdminName reads the logged-in admin name from a protected
// Datasource page. A non-empty result is the liveness signal that a session
// cookie is actually authenticated.
func ExtractAdminName(html string) string {
	if m := adminNameRe.FindStringSubmatch(html); m != nil {
		return m[1]
	}
	return ""
}
