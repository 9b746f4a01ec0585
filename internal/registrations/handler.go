package registrations

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/ledger"
	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/apperror"
	"github.com/aura-events/backend/pkg/response"
)

// RegisterRequest is the body for POST /registrations.
type RegisterRequest struct {
	EventID string `json:"eventId"`
}

// Ledger is the registration state the handler drives.
type Ledger interface {
	Register(ctx context.Context, userID, eventID uuid.UUID) (*models.Confirmation, error)
	Cancel(ctx context.Context, userID, eventID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Schedule, error)
}

// Handler handles registration HTTP endpoints. Every route requires the JWT middleware.
type Handler struct {
	ledger Ledger
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a registrations handler.
func NewHandler(l Ledger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{ledger: l, logger: logger, now: time.Now}
}

// Register handles POST /registrations.
func (h *Handler) Register(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "No authorization header provided")
		return
	}
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	raw := strings.TrimSpace(req.EventID)
	if raw == "" {
		response.BadRequest(c, "Event ID is required")
		return
	}
	eventID, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(c, "Invalid event ID")
		return
	}

	conf, err := h.ledger.Register(c.Request.Context(), userID, eventID)
	if err != nil {
		h.fail(c, "register", err)
		return
	}
	response.CreatedMessage(c, "Successfully registered for event", conf)
}

// Cancel handles DELETE /registrations/:eventId.
func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "No authorization header provided")
		return
	}
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.Error(c, ledger.ErrRegistrationNotFound)
		return
	}
	if err := h.ledger.Cancel(c.Request.Context(), userID, eventID); err != nil {
		h.fail(c, "cancel", err)
		return
	}
	response.OKMessage(c, "Registration cancelled successfully", nil)
}

// Mine handles GET /registrations/my-events.
func (h *Handler) Mine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "No authorization header provided")
		return
	}
	s, err := h.ledger.ListForUser(c.Request.Context(), userID, h.now().UTC())
	if err != nil {
		h.fail(c, "list registrations", err)
		return
	}
	response.OK(c, s)
}

// fail maps ledger errors to the REST contract. A full event is a 400, not a 409.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ledger.ErrEventFull):
		response.ErrorStatus(c, http.StatusBadRequest, err)
	case apperror.KindOf(err) == apperror.KindInternal:
		h.logger.Error(op+" failed", zap.Error(err))
		response.Error(c, err)
	default:
		response.Error(c, err)
	}
}
