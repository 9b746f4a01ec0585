package events

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/apperror"
	"github.com/aura-events/backend/pkg/response"
)

// RegistrationChecker reports whether a user holds an active registration.
type RegistrationChecker interface {
	IsRegistered(ctx context.Context, userID, eventID uuid.UUID) (bool, error)
}

// DetailResponse is the body of GET /events/:id.
type DetailResponse struct {
	Event        *models.Event `json:"event"`
	IsRegistered bool          `json:"isRegistered"`
}

// Handler handles catalog HTTP endpoints.
type Handler struct {
	svc           *Service
	registrations RegistrationChecker
	logger        *zap.Logger
}

// NewHandler creates a catalog handler.
func NewHandler(svc *Service, registrations RegistrationChecker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, registrations: registrations, logger: logger}
}

// List handles GET /events.
func (h *Handler) List(c *gin.Context) {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		response.Error(c, ErrInvalidPage)
		return
	}
	limit, err := intQuery(c, "limit", DefaultLimit)
	if err != nil {
		response.Error(c, ErrInvalidLimit)
		return
	}
	f := models.EventFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Location: c.Query("location"),
	}
	if f.DateFrom, err = dateQuery(c, "dateFrom", false); err != nil {
		response.BadRequest(c, "dateFrom must be YYYY-MM-DD or RFC 3339")
		return
	}
	if f.DateTo, err = dateQuery(c, "dateTo", true); err != nil {
		response.BadRequest(c, "dateTo must be YYYY-MM-DD or RFC 3339")
		return
	}

	res, err := h.svc.List(c.Request.Context(), f, page, limit)
	if err != nil {
		h.fail(c, "list events", err)
		return
	}
	response.OK(c, res)
}

// Get handles GET /events/:id. isRegistered is set only for authenticated callers.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, ErrEventNotFound)
		return
	}
	ctx := c.Request.Context()
	event, err := h.svc.GetByID(ctx, id)
	if err != nil {
		h.fail(c, "get event", err)
		return
	}

	res := DetailResponse{Event: event}
	if userID, ok := middleware.UserID(c); ok && h.registrations != nil {
		registered, err := h.registrations.IsRegistered(ctx, userID, id)
		if err != nil {
			h.logger.Warn("registration lookup failed", zap.String("event_id", id.String()), zap.Error(err))
		}
		res.IsRegistered = registered
	}
	response.OK(c, res)
}

// Categories handles GET /categories.
func (h *Handler) Categories(c *gin.Context) {
	list, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, "list categories", err)
		return
	}
	response.OK(c, list)
}

// Locations handles GET /locations.
func (h *Handler) Locations(c *gin.Context) {
	list, err := h.svc.Locations(c.Request.Context())
	if err != nil {
		h.fail(c, "list locations", err)
		return
	}
	response.OK(c, list)
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	if apperror.KindOf(err) == apperror.KindInternal {
		h.logger.Error(op+" failed", zap.Error(err))
	}
	response.Error(c, err)
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// dateQuery parses YYYY-MM-DD or RFC 3339. A bare date used as an upper bound
// covers the whole day.
func dateQuery(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
