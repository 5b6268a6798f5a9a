// Package queue derives the ordered task list from the Datasource worklist
// and walks a reviewer through it one item at a time, prefetching the next
// task's detail while the current one is under review.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/asshaltech/bapp-review/internal/extract"
	"github.com/asshaltech/bapp-review/internal/models"
	"github.com/asshaltech/bapp-review/internal/portal"
	"github.com/asshaltech/bapp-review/internal/review"
)

// DACPortal is the slice of the DAC client the controller needs.
type DACPortal interface {
	FilterApproval(ctx context.Context, token, npsn, schoolName, serialNumber string) (portal.FilterResult, error)
	FetchDetail(ctx context.Context, token, id string) (string, error)
}

// DatasourcePortal is the slice of the Datasource client the controller needs.
type DatasourcePortal interface {
	FetchWorklist(ctx context.Context, token string) (string, error)
	FetchForm(ctx context.Context, token, actionID string) (string, error)
	FetchImage(ctx context.Context, token, src string) ([]byte, string, error)
}

// Sessions provides token access and rotation for both portals.
type Sessions interface {
	Token(p models.Portal) string
	SetToken(ctx context.Context, p models.Portal, token string)
}

// Config tunes worklist filtering and prefetch behavior.
type Config struct {
	// WorklistType is the item type admitted into the queue.
	WorklistType string
	// InProcessStatus is the worklist status admitted into the queue.
	InProcessStatus string
	// PrefetchTTL bounds how long an unconsumed prefetched detail stays
	// cached.
	PrefetchTTL time.Duration
	// SelectDebounce suppresses re-triggered task selection while a
	// transition is in flight. Anti-flicker only, not a correctness
	// mechanism.
	SelectDebounce time.Duration
}

// ErrTransitionInFlight is returned when a selection arrives inside the
// debounce window of the previous one.
var ErrTransitionInFlight = errors.New("task transition already in flight")

// Controller owns the task cursor. The cursor only moves forward; a skipped
// or completed item is never revisited automatically.
type Controller struct {
	cfg      Config
	dac      DACPortal
	ds       DatasourcePortal
	sessions Sessions
	logger   *zap.Logger

	mu            sync.Mutex
	items         []models.WorklistItem
	cursor        int
	fields        []models.EvaluationField
	idUser        string
	currentDetail *models.DetailRecord
	lastSelect    time.Time

	// prefetch state: at most one prefetch in flight, results keyed by
	// serial number and consumed exactly once.
	prefetching bool
	cache       *gocache.Cache
}

// NewController creates a task queue controller.
func NewController(cfg Config, dac DACPortal, ds DatasourcePortal, sessions Sessions, logger *zap.Logger) *Controller {
	if cfg.PrefetchTTL <= 0 {
		cfg.PrefetchTTL = 10 * time.Minute
	}
	if cfg.SelectDebounce <= 0 {
		cfg.SelectDebounce = 100 * time.Millisecond
	}
	return &Controller{
		cfg:      cfg,
		dac:      dac,
		ds:       ds,
		sessions: sessions,
		logger:   logger,
		cache:    gocache.New(cfg.PrefetchTTL, 2*cfg.PrefetchTTL),
	}
}

// Load fetches and parses the worklist, applies the type/status filter,
// optionally reverses the order, resets the cursor to 0 and refreshes the
// evaluation field option sets from the first actionable item's form page.
func (c *Controller) Load(ctx context.Context, reverse bool) ([]models.WorklistItem, error) {
	token := c.sessions.Token(models.PortalDatasource)
	if token == "" {
		return nil, portal.ErrNoSession
	}

	html, err := c.ds.FetchWorklist(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load worklist: %w", err)
	}

	parsed := extract.ParseWorklist(html)
	items := make([]models.WorklistItem, 0, len(parsed))
	for _, item := range parsed {
		if c.cfg.WorklistType != "" && item.Type != c.cfg.WorklistType {
			continue
		}
		if c.cfg.InProcessStatus != "" && item.Status != c.cfg.InProcessStatus {
			continue
		}
		items = append(items, item)
	}
	if reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}

	fields, idUser := c.loadFormOptions(ctx, token, items)

	c.mu.Lock()
	c.items = items
	c.cursor = 0
	c.currentDetail = nil
	c.fields = fields
	c.idUser = idUser
	c.mu.Unlock()
	c.cache.Flush()

	c.logger.Info("Worklist loaded",
		zap.Int("total_rows", len(parsed)),
		zap.Int("pending", len(items)))
	return items, nil
}

// loadFormOptions scrapes the per-worklist select options off the first
// item that carries a form link. A scrape failure falls back to the default
// option sets; the reviewer can still work.
func (c *Controller) loadFormOptions(ctx context.Context, token string, items []models.WorklistItem) ([]models.EvaluationField, string) {
	for _, item := range items {
		if item.ActionID == "" {
			continue
		}
		html, err := c.ds.FetchForm(ctx, token, item.ActionID)
		if err != nil {
			c.logger.Warn("Failed to fetch form options", zap.String("action_id", item.ActionID), zap.Error(err))
			break
		}
		return extract.ParseFormOptions(html, review.FieldMapping), extract.ExtractIDUser(html)
	}
	return extract.ParseFormOptions("", review.FieldMapping), ""
}

// Current returns the item under the cursor, or nil once the queue is
// exhausted.
func (c *Controller) Current() *models.WorklistItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

func (c *Controller) currentLocked() *models.WorklistItem {
	if c.cursor < 0 || c.cursor >= len(c.items) {
		return nil
	}
	item := c.items[c.cursor]
	return &item
}

// Advance moves the cursor forward by exactly one, regardless of outcome.
// Advancing past the last item leaves the controller in the terminal
// no-current-task state.
func (c *Controller) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursor < len(c.items) {
		c.cursor++
	}
	c.currentDetail = nil
	c.resetFieldsLocked()
}

// Select moves the cursor to a later index. Backward navigation is not
// supported; selections inside the debounce window are rejected.
func (c *Controller) Select(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Since(c.lastSelect) < c.cfg.SelectDebounce {
		return ErrTransitionInFlight
	}
	if index < c.cursor || index > len(c.items) {
		return fmt.Errorf("cannot select task %d from cursor %d", index, c.cursor)
	}
	c.lastSelect = time.Now()
	c.cursor = index
	c.currentDetail = nil
	c.resetFieldsLocked()
	return nil
}

// Remaining counts the tasks not yet passed, the current one included.
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) - c.cursor
}

// Fields returns a copy of the evaluation fields with current selections.
func (c *Controller) Fields() []models.EvaluationField {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.EvaluationField, len(c.fields))
	copy(out, c.fields)
	return out
}

// IDUser returns the Datasource user id embedded in the form page.
func (c *Controller) IDUser() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idUser
}

// UpdateField sets one evaluation field's selection. The value must be one
// of the field's scraped options.
func (c *Controller) UpdateField(id, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.fields {
		if c.fields[i].ID != id {
			continue
		}
		for _, opt := range c.fields[i].Options {
			if opt == value {
				c.fields[i].Selected = value
				return nil
			}
		}
		return fmt.Errorf("value %q is not an option of field %s", value, id)
	}
	return fmt.Errorf("unknown evaluation field %s", id)
}

func (c *Controller) resetFieldsLocked() {
	for i := range c.fields {
		if len(c.fields[i].Options) > 0 {
			c.fields[i].Selected = c.fields[i].Options[0]
		}
	}
}

// CurrentDetail returns the resolved detail for the current task, or nil.
func (c *Controller) CurrentDetail() *models.DetailRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentDetail
}

// ResolveCurrent resolves the current task's detail record, consuming the
// prefetched result when one matches the task's serial number. A nil
// detail with nil error means there is nothing to review for this item;
// the reviewer can still skip it.
func (c *Controller) ResolveCurrent(ctx context.Context) (*models.DetailRecord, error) {
	item := c.Current()
	if item == nil {
		return nil, nil
	}

	var detail *models.DetailRecord
	if cached, ok := c.cache.Get(prefetchKey(item.SerialNumber)); ok {
		// Single use: the slot is cleared on consumption.
		c.cache.Delete(prefetchKey(item.SerialNumber))
		detail = cached.(*models.DetailRecord)
		c.logger.Debug("Prefetched detail consumed", zap.String("serial_number", item.SerialNumber))
	} else {
		resolved, err := c.resolveDetail(ctx, *item)
		if err != nil {
			return nil, err
		}
		detail = resolved
	}

	c.mu.Lock()
	c.currentDetail = detail
	c.mu.Unlock()

	c.prefetchNext()
	return detail, nil
}

// resolveDetail runs the two-step upstream lookup: approval search for the
// DAC record id, then detail page fetch and parse. A missing id yields a
// nil detail, not an error.
func (c *Controller) resolveDetail(ctx context.Context, item models.WorklistItem) (*models.DetailRecord, error) {
	token := c.sessions.Token(models.PortalDAC)
	if token == "" {
		return nil, portal.ErrNoSession
	}

	result, err := c.dac.FilterApproval(ctx, token, item.NPSN, item.SchoolName, item.SerialNumber)
	if result.RotatedToken != "" {
		c.sessions.SetToken(ctx, models.PortalDAC, result.RotatedToken)
		token = result.RotatedToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve approval id: %w", err)
	}
	if result.ExtractedID == "" {
		c.logger.Info("No DAC record for worklist item",
			zap.String("serial_number", item.SerialNumber),
			zap.String("npsn", item.NPSN))
		return nil, nil
	}

	html, err := c.dac.FetchDetail(ctx, token, result.ExtractedID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch detail: %w", err)
	}
	record := extract.ParseDetail(html, result.ExtractedID)
	return &record, nil
}

// prefetchNext opportunistically resolves the next task's detail and warms
// its images, store-and-forget. Only one prefetch runs at a time; a
// completed prefetch for an item that is no longer next is discarded.
func (c *Controller) prefetchNext() {
	c.mu.Lock()
	if c.prefetching || c.cursor+1 >= len(c.items) {
		c.mu.Unlock()
		return
	}
	c.prefetching = true
	next := c.items[c.cursor+1]
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			c.prefetching = false
			c.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		detail, err := c.resolveDetail(ctx, next)
		if err != nil || detail == nil {
			if err != nil {
				c.logger.Warn("Prefetch failed", zap.String("serial_number", next.SerialNumber), zap.Error(err))
			}
			return
		}

		c.mu.Lock()
		stillNext := c.cursor < len(c.items) &&
			((c.cursor+1 < len(c.items) && c.items[c.cursor+1].SerialNumber == next.SerialNumber) ||
				c.items[c.cursor].SerialNumber == next.SerialNumber)
		c.mu.Unlock()
		if !stillNext {
			// The reviewer moved past this item while the request was in
			// flight; the result is stale.
			c.logger.Debug("Discarding outdated prefetch", zap.String("serial_number", next.SerialNumber))
			return
		}

		c.cache.Set(prefetchKey(next.SerialNumber), detail, gocache.DefaultExpiration)
		c.warmImages(ctx, detail)
		c.logger.Debug("Next task prefetched", zap.String("serial_number", next.SerialNumber))
	}()
}

// warmImages pulls the documentation photos into the image cache so the
// gallery renders instantly when the reviewer advances.
func (c *Controller) warmImages(ctx context.Context, detail *models.DetailRecord) {
	token := c.sessions.Token(models.PortalDatasource)
	for _, img := range detail.Images {
		if _, ok := c.cache.Get(imageKey(img.Src)); ok {
			continue
		}
		data, contentType, err := c.ds.FetchImage(ctx, token, img.Src)
		if err != nil {
			c.logger.Debug("Image warmup failed", zap.String("src", img.Src), zap.Error(err))
			continue
		}
		c.cache.Set(imageKey(img.Src), cachedImage{data: data, contentType: contentType}, gocache.DefaultExpiration)
	}
}

type cachedImage struct {
	data        []byte
	contentType string
}

// Image serves one documentation photo, from cache when warmed.
func (c *Controller) Image(ctx context.Context, src string) ([]byte, string, error) {
	if cached, ok := c.cache.Get(imageKey(src)); ok {
		img := cached.(cachedImage)
		return img.data, img.contentType, nil
	}
	token := c.sessions.Token(models.PortalDatasource)
	if token == "" {
		return nil, "", portal.ErrNoSession
	}
	return c.ds.FetchImage(ctx, token, src)
}

// Reset drops all queue state. Called on logout.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.items = nil
	c.cursor = 0
	c.currentDetail = nil
	c.fields = nil
	c.idUser = ""
	c.mu.Unlock()
	c.cache.Flush()
}

func prefetchKey(serialNumber string) string { return "detail:" + serialNumber }
func imageKey(src string) string             { return "image:" + src }
