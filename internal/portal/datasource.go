package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/asshaltech/bapp-review/internal/extract"
)

// DatasourceClient talks to the logistics/evidence portal.
type DatasourceClient struct {
	baseURL string
	// probeFormID names a known protected view page used as the login
	// liveness probe. The portal answers 200 OK even for dead cookies, so
	// login is only trusted once this page shows an admin name.
	probeFormID string
	http        *http.Client
	// loginHTTP does not follow redirects; the login 302 carries the
	// session cookie.
	loginHTTP *http.Client
	logger    *zap.Logger
}

// DatasourceConfig holds Datasource client configuration.
type DatasourceConfig struct {
	Config
	ProbeFormID string
}

// NewDatasourceClient creates a Datasource portal client.
func NewDatasourceClient(cfg DatasourceConfig, logger *zap.Logger) *DatasourceClient {
	return &DatasourceClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		probeFormID: cfg.ProbeFormID,
		http:        newHTTPClient(cfg.Timeout),
		loginHTTP:   newNoRedirectClient(cfg.Timeout),
		logger:      logger,
	}
}

// Login authenticates against the Datasource portal. The portal redirects on
// success and sets a session cookie; a bare 200 OK proves nothing, so login
// succeeds only when the cookie is present AND a follow-up request to a
// protected page is recognized as authenticated.
func (c *DatasourceClient) Login(ctx context.Context, username, password string) (string, error) {
	body, contentType, err := multipartForm(map[string]string{
		"username": username,
		"password": password,
		"submit":   "",
	})
	if err != nil {
		return "", err
	}

	req, err := newRequest(ctx, http.MethodPost, c.baseURL+"/auth/login", "", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.loginHTTP.Do(req)
	if err != nil {
		return "", &AuthError{Reason: ReasonNetwork, Err: err}
	}
	token := sessionCookie(resp)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if token == "" {
		return "", &AuthError{Reason: ReasonNoSessionCookie}
	}

	// Liveness probe: the cookie must actually grant access.
	html, err := c.FetchViewForm(ctx, token, c.probeFormID)
	if err != nil {
		return "", &AuthError{Reason: ReasonNetwork, Err: err}
	}
	if extract.ExtractAdminName(html) == "" {
		return "", &AuthError{Reason: ReasonUpstreamRejected, Message: "login verification failed"}
	}

	c.logger.Info("Datasource login succeeded", zap.String("username", username))
	return token, nil
}

// FetchWorklist retrieves the pending worklist page HTML.
func (c *DatasourceClient) FetchWorklist(ctx context.Context, token string) (string, error) {
	return c.get(ctx, token, "/proses")
}

// FetchForm retrieves the evaluation form page for a worklist item.
func (c *DatasourceClient) FetchForm(ctx context.Context, token, actionID string) (string, error) {
	return c.get(ctx, token, "/form/"+actionID)
}

// FetchViewForm retrieves the read-only view page for a worklist item. After
// submission this page carries the portal's own rejection note.
func (c *DatasourceClient) FetchViewForm(ctx context.Context, token, actionID string) (string, error) {
	return c.get(ctx, token, "/view_form/"+actionID)
}

// SubmitEvaluation posts the reviewer's evaluation form.
func (c *DatasourceClient) SubmitEvaluation(ctx context.Context, token string, payload map[string]string) error {
	body, contentType, err := multipartForm(payload)
	if err != nil {
		return err
	}

	req, err := newRequest(ctx, http.MethodPost, c.baseURL+"/form_bapp/submit", token, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to submit evaluation: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return logUpstreamError(c.logger, "datasource", resp)
	}

	c.logger.Info("Evaluation submitted",
		zap.String("id_update", payload["id_update"]),
		zap.String("npsn", payload["npsn"]))
	return nil
}

// FetchImage retrieves one documentation photo. Used by the prefetch warmup
// and the image proxy; the browser cannot attach the portal cookie itself.
func (c *DatasourceClient) FetchImage(ctx context.Context, token, src string) ([]byte, string, error) {
	url := src
	if strings.HasPrefix(src, "/") {
		url = c.baseURL + src
	}
	req, err := newRequest(ctx, http.MethodGet, url, token, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", logUpstreamError(c.logger, "datasource", resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *DatasourceClient) get(ctx context.Context, token, path string) (string, error) {
	req, err := newRequest(ctx, http.MethodGet, c.baseURL+path, token, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return "", logUpstreamError(c.logger, "datasource", resp)
	}
	return readBody(resp)
}
