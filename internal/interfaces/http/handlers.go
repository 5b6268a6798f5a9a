package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asshaltech/bapp-review/internal/models"
	"github.com/asshaltech/bapp-review/internal/portal"
	"github.com/asshaltech/bapp-review/internal/queue"
	"github.com/asshaltech/bapp-review/internal/report"
	"github.com/asshaltech/bapp-review/internal/review"
	"github.com/asshaltech/bapp-review/internal/session"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	sessions *session.Manager
	queue    *queue.Controller
	pipeline *review.Pipeline
	exporter *report.Exporter
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	sessions *session.Manager,
	queueCtrl *queue.Controller,
	pipeline *review.Pipeline,
	exporter *report.Exporter,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		sessions: sessions,
		queue:    queueCtrl,
		pipeline: pipeline,
		exporter: exporter,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":  "healthy",
			"service": "bapp-review",
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// LoginRequest carries portal credentials
type LoginRequest struct {
	Portal   string `json:"portal" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "username and password are required"})
		return
	}

	p := models.Portal(req.Portal)
	if p != models.PortalDAC && p != models.PortalDatasource {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: fmt.Sprintf("unknown portal %q", req.Portal)})
		return
	}

	s, err := h.sessions.Login(c.Request.Context(), p, req.Username, req.Password)
	if err != nil {
		var authErr *portal.AuthError
		if errors.As(err, &authErr) {
			c.JSON(http.StatusUnauthorized, Response{Success: false, Error: authErr.Error()})
			return
		}
		h.logger.Error("Login failed", zap.String("portal", req.Portal), zap.Error(err))
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: "login failed"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"portal":       s.Portal,
		"refreshed_at": s.RefreshedAt,
	}})
}

// Logout handles POST /api/auth/logout. Both portal sessions and all cached
// credentials are cleared together.
func (h *Handlers) Logout(c *gin.Context) {
	h.sessions.Logout(c.Request.Context())
	h.queue.Reset()
	c.JSON(http.StatusOK, Response{Success: true})
}

// AuthStatus handles GET /api/auth/status
func (h *Handlers) AuthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"dac":        h.sessions.Get(models.PortalDAC) != nil,
		"datasource": h.sessions.Get(models.PortalDatasource) != nil,
	}})
}

// LoadQueueRequest carries the worklist load options
type LoadQueueRequest struct {
	Reverse bool `json:"reverse"`
}

// LoadQueue handles POST /api/queue/load
func (h *Handlers) LoadQueue(c *gin.Context) {
	var req LoadQueueRequest
	_ = c.ShouldBindJSON(&req)

	items, err := h.queue.Load(c.Request.Context(), req.Reverse)
	if err != nil {
		if errors.Is(err, portal.ErrNoSession) {
			c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "datasource session required"})
			return
		}
		h.logger.Error("Failed to load worklist", zap.Error(err))
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: "failed to load worklist"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"count":  len(items),
		"items":  items,
		"fields": h.queue.Fields(),
	}})
}

// QueueState handles GET /api/queue
func (h *Handlers) QueueState(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"current":   h.queue.Current(),
		"remaining": h.queue.Remaining(),
	}})
}

// SelectTaskRequest names the queue index to jump to
type SelectTaskRequest struct {
	Index int `json:"index"`
}

// SelectTask handles POST /api/queue/select
func (h *Handlers) SelectTask(c *gin.Context) {
	var req SelectTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "index is required"})
		return
	}
	if err := h.queue.Select(req.Index); err != nil {
		if errors.Is(err, queue.ErrTransitionInFlight) {
			c.JSON(http.StatusTooManyRequests, Response{Success: false, Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"current": h.queue.Current()}})
}

// SkipTask handles POST /api/queue/skip. The cursor moves forward by one and
// the skipped item is never re-inserted.
func (h *Handlers) SkipTask(c *gin.Context) {
	h.queue.Advance()
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"current":   h.queue.Current(),
		"remaining": h.queue.Remaining(),
	}})
}

// TaskDetail handles GET /api/task/detail. Resolving is idempotent per task:
// an already-resolved detail is returned as-is.
func (h *Handlers) TaskDetail(c *gin.Context) {
	detail := h.queue.CurrentDetail()
	if detail == nil {
		resolved, err := h.queue.ResolveCurrent(c.Request.Context())
		if err != nil {
			if errors.Is(err, portal.ErrNoSession) {
				c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "dac session required"})
				return
			}
			// Read-path failure: nothing to show, the reviewer can skip.
			h.logger.Warn("Detail resolution failed", zap.Error(err))
			c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"detail": nil}})
			return
		}
		detail = resolved
	}

	data := gin.H{"detail": detail, "current": h.queue.Current()}
	if detail != nil {
		if warning, err := h.pipeline.CheckDoubleData(c.Request.Context(), detail.School.NPSN); err != nil {
			h.logger.Warn("Double data check failed", zap.Error(err))
		} else if warning != nil {
			data["double_data_warning"] = warning
		}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// TaskImage handles GET /api/task/image. The browser cannot attach the
// portal cookie itself, so documentation photos are proxied here.
func (h *Handlers) TaskImage(c *gin.Context) {
	src := c.Query("src")
	if src == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "src is required"})
		return
	}
	data, contentType, err := h.queue.Image(c.Request.Context(), src)
	if err != nil {
		h.logger.Warn("Image fetch failed", zap.String("src", src), zap.Error(err))
		c.Status(http.StatusBadGateway)
		return
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	c.Data(http.StatusOK, contentType, data)
}

// EvaluationFields handles GET /api/evaluation
func (h *Handlers) EvaluationFields(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"fields": h.queue.Fields()}})
}

// UpdateFieldRequest sets one evaluation field selection
type UpdateFieldRequest struct {
	ID    string `json:"id" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// UpdateEvaluationField handles POST /api/evaluation/field
func (h *Handlers) UpdateEvaluationField(c *gin.Context) {
	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "id and value are required"})
		return
	}
	if err := h.queue.UpdateField(req.ID, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"fields": h.queue.Fields()}})
}

// SubmitRequest carries the per-submission reviewer inputs
type SubmitRequest struct {
	VerificationDate string `json:"verification_date"`
	ManualSN         string `json:"sn_bapp"`
	ManualNote       bool   `json:"manual_note"`
}

// Submit handles POST /api/submit
func (h *Handlers) Submit(c *gin.Context) {
	var req SubmitRequest
	_ = c.ShouldBindJSON(&req)
	if req.VerificationDate == "" {
		req.VerificationDate = time.Now().Format("2006-01-02")
	}

	result, err := h.pipeline.Submit(c.Request.Context(), review.SubmitOptions{
		VerificationDate: req.VerificationDate,
		ManualSN:         req.ManualSN,
		ManualNote:       req.ManualNote,
	})
	if err != nil {
		if errors.Is(err, review.ErrNotReady) {
			// Preconditions not met: dropped with no state change.
			c.JSON(http.StatusConflict, Response{Success: false, Error: "submission preconditions not met"})
			return
		}
		// Write-path failure: surfaced as a blocking alert. The cursor is
		// not reverted when it already advanced optimistically.
		h.logger.Error("Submission failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error(), Data: result})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ConfirmNoteRequest carries the reviewer-edited note
type ConfirmNoteRequest struct {
	Note string `json:"note"`
}

// ConfirmNote handles POST /api/submit/confirm-note
func (h *Handlers) ConfirmNote(c *gin.Context) {
	var req ConfirmNoteRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.pipeline.ConfirmNote(c.Request.Context(), req.Note)
	if err != nil {
		if errors.Is(err, review.ErrNoPendingSave) {
			c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
			return
		}
		h.logger.Error("Note confirmation failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ExportReport handles GET /api/report/export
func (h *Handlers) ExportReport(c *gin.Context) {
	if h.exporter == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "report export not configured"})
		return
	}
	data, err := h.exporter.Export(c.Request.Context(), 0)
	if err != nil {
		h.logger.Error("Report export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to export report"})
		return
	}

	filename := fmt.Sprintf("decision-log-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
