package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/asshaltech/bapp-review/internal/extract"
)

// DACClient talks to the approval-authority portal.
type DACClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewDACClient creates a DAC portal client.
func NewDACClient(cfg Config, logger *zap.Logger) *DACClient {
	return &DACClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    newHTTPClient(cfg.Timeout),
		logger:  logger,
	}
}

// ajaxLoginResponse is the JSON body of the DAC ajax login endpoint.
type ajaxLoginResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// Login authenticates against DAC and returns the session token. DAC
// answers the ajax login with a JSON status flag and sets the session
// cookie alongside it.
func (c *DACClient) Login(ctx context.Context, username, password string) (string, error) {
	body, contentType, err := multipartForm(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	req, err := newRequest(ctx, http.MethodPost, c.baseURL+"/auth/ajax_login/", "", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &AuthError{Reason: ReasonNetwork, Err: err}
	}
	token := sessionCookie(resp)
	raw, err := readBody(resp)
	if err != nil {
		return "", &AuthError{Reason: ReasonNetwork, Err: err}
	}

	var login ajaxLoginResponse
	if err := json.Unmarshal([]byte(raw), &login); err != nil || !login.Status {
		msg := login.Message
		if msg == "" {
			msg = "login rejected"
		}
		return "", &AuthError{Reason: ReasonUpstreamRejected, Message: msg}
	}
	if token == "" {
		return "", &AuthError{Reason: ReasonNoSessionCookie}
	}

	c.logger.Info("DAC login succeeded", zap.String("username", username))
	return token, nil
}

// filterTableResponse is the DataTables-style JSON of the approval search.
// Rows are positional arrays; index 8 holds an HTML snippet carrying the
// record's data-id attribute.
type filterTableResponse struct {
	Data [][]any `json:"data"`
}

// FilterResult is the outcome of an approval search.
type FilterResult struct {
	ExtractedID string
	// RotatedToken is non-empty when the portal issued a fresh session
	// cookie; the caller must replace its cached token with it.
	RotatedToken string
}

// FilterApproval resolves the DAC record id for a delivery by searching on
// the compound NPSN string and serial number.
func (c *DACClient) FilterApproval(ctx context.Context, token, npsn, schoolName, serialNumber string) (FilterResult, error) {
	form := url.Values{}
	form.Set("draw", "1")
	form.Set("status", "all")
	form.Set("npsn", npsn+" - "+schoolName)
	form.Set("termin", "all")
	form.Set("sn", serialNumber)

	req, err := newRequest(ctx, http.MethodPost, c.baseURL+"/app/approval/filter_table", token, strings.NewReader(form.Encode()))
	if err != nil {
		return FilterResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return FilterResult{}, fmt.Errorf("failed to query approval filter: %w", err)
	}
	result := FilterResult{RotatedToken: sessionCookie(resp)}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return result, logUpstreamError(c.logger, "dac", resp)
	}
	raw, err := readBody(resp)
	if err != nil {
		return result, err
	}

	var table filterTableResponse
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		// Not fatal: an unexpected body means no record, the reviewer can
		// still skip the item.
		c.logger.Warn("Approval filter returned non-JSON body", zap.Error(err))
		return result, nil
	}
	if len(table.Data) == 0 || len(table.Data[0]) <= 8 {
		return result, nil
	}
	if snippet, ok := table.Data[0][8].(string); ok {
		result.ExtractedID = extract.ExtractDataID(snippet)
	}
	return result, nil
}

// FetchDetail retrieves the detail page HTML for a DAC record id.
func (c *DACClient) FetchDetail(ctx context.Context, token, id string) (string, error) {
	req, err := newRequest(ctx, http.MethodGet, c.baseURL+"/app/approval/form/"+id, token, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch detail page: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return "", logUpstreamError(c.logger, "dac", resp)
	}
	return readBody(resp)
}

// SaveApprovalRequest is the final decision written to DAC.
type SaveApprovalRequest struct {
	Status        int
	ID            string
	NPSN          string
	ReceiptNumber string
	Note          string
}

// SaveApproval persists the accept/reject decision on DAC.
func (c *DACClient) SaveApproval(ctx context.Context, token string, save SaveApprovalRequest) error {
	form := url.Values{}
	form.Set("status", strconv.Itoa(save.Status))
	form.Set("id", save.ID)
	form.Set("npsn", save.NPSN)
	form.Set("resi", save.ReceiptNumber)
	form.Set("note", save.Note)

	req, err := newRequest(ctx, http.MethodPost, c.baseURL+"/app/approval/save", token, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to save approval: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return logUpstreamError(c.logger, "dac", resp)
	}

	c.logger.Info("Approval saved to DAC",
		zap.String("id", save.ID),
		zap.Int("status", save.Status),
		zap.String("npsn", save.NPSN))
	return nil
}

// SchoolRecord is one DAC record returned by the NPSN lookup.
type SchoolRecord struct {
	SerialNumber string `json:"serial_number"`
	NPSN         string `json:"npsn"`
	SchoolName   string `json:"nama_sekolah"`
}

// ListByNPSN returns every DAC record registered for an NPSN. Used by the
// double-data guard: more than one record warrants a reviewer warning.
func (c *DACClient) ListByNPSN(ctx context.Context, token, npsn string) ([]SchoolRecord, error) {
	req, err := newRequest(ctx, http.MethodGet, c.baseURL+"/app/approval/get_sekolah?term="+url.QueryEscape(npsn), token, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", c.baseURL+"/app/approval")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list records by NPSN: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, logUpstreamError(c.logger, "dac", resp)
	}
	raw, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	var records []SchoolRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("failed to parse NPSN lookup response: %w", err)
	}
	return records, nil
}
