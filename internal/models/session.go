package models

import "time"

// Portal identifies which upstream system issued a session token.
type Portal string

const (
	// PortalDAC is the approval-authority portal holding the canonical
	// accept/reject record.
	PortalDAC Portal = "dac"

	// PortalDatasource is the logistics/evidence portal holding the
	// evaluation form and delivery documentation.
	PortalDatasource Portal = "datasource"
)

// Credentials are the login credentials cached for silent re-authentication.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is an authenticated session against one upstream portal.
// A token is only valid for the portal that issued it; tokens are never
// cross-used.
type Session struct {
	Portal      Portal       `json:"portal"`
	Token       string       `json:"token"`
	Credentials *Credentials `json:"-"`
	RefreshedAt time.Time    `json:"refreshed_at"`
}

// HasCredentials reports whether the session carries cached credentials
// usable for a silent re-login.
func (s *Session) HasCredentials() bool {
	return s != nil && s.Credentials != nil &&
		s.Credentials.Username != "" && s.Credentials.Password != ""
}
