// Package portal performs authenticated HTTP calls against the two upstream
// portals. Both are CodeIgniter applications authenticated by a ci_session
// cookie; neither was designed for programmatic use, so requests imitate a
// desktop browser.
package portal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	sessionCookieName = "ci_session"
	userAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds shared portal client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// newNoRedirectClient returns a client that surfaces redirects instead of
// following them. Login endpoints answer with a 302 whose Set-Cookie header
// would be lost if the redirect were followed.
func newNoRedirectClient(timeout time.Duration) *http.Client {
	c := newHTTPClient(timeout)
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

// newRequest builds a portal request with the browser User-Agent and, when
// token is non-empty, the session cookie attached.
func newRequest(ctx context.Context, method, url, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	}
	return req, nil
}

// sessionCookie returns the ci_session value set by a response, or "" when
// the response carries none. Portals rotate the cookie on some calls; a
// non-empty result must replace the cached token.
func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieName {
			return c.Value
		}
	}
	return ""
}

// readBody drains and closes a response body.
func readBody(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(b), nil
}

// multipartForm encodes fields as a multipart/form-data body, the format
// both portals expect for form posts.
func multipartForm(fields map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to encode form field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func logUpstreamError(logger *zap.Logger, portal string, resp *http.Response) *UpstreamHTTPError {
	err := &UpstreamHTTPError{Portal: portal, Status: resp.StatusCode, URL: resp.Request.URL.String()}
	logger.Warn("Upstream portal error",
		zap.String("portal", portal),
		zap.Int("status", resp.StatusCode),
		zap.String("url", err.URL))
	return err
}
