package api

import (
	"errors"
	"net/http"

	reqdto "voltshare/internal/handler/dto/request"
	resdto "voltshare/internal/handler/dto/response"
	"voltshare/internal/handler/middleware"
	"voltshare/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SessionHandler struct {
	sessionCommands commands.SessionCommands
}

func NewSessionHandler(sessionCommands commands.SessionCommands) *SessionHandler {
	return &SessionHandler{sessionCommands: sessionCommands}
}

// @Summary Start charging session
// @Description Start the session for a booking using the plaintext access code
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.StartSessionRequest true "Start request"
// @Success 201 {object} resdto.SessionResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 410 {object} map[string]string
// @Router /bookings/{id}/session/start [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	renterID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid booking ID format",
		})
		return
	}

	var req reqdto.StartSessionRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	view, err := h.sessionCommands.StartSession(c.Request.Context(), bookingID, renterID, req.AccessCode)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Booking not found",
			})
		case errors.Is(err, commands.ErrNotBookingRenter):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Only the renter may start this session",
			})
		case errors.Is(err, commands.ErrInvalidAccessCode):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Access code rejected",
			})
		case errors.Is(err, commands.ErrStartTooEarly):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Session cannot start before the grace window opens",
			})
		case errors.Is(err, commands.ErrSlotLapsed):
			c.JSON(http.StatusGone, gin.H{
				"error": "Booked slot has lapsed",
			})
		case errors.Is(err, commands.ErrLifecycleViolation):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Session cannot start in the booking's current status",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.FromSessionView(view))
}

// @Summary Stop charging session
// @Description Stop the open session; overstay minutes past the booked end are billed
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.StopSessionRequest true "Stop request"
// @Success 200 {object} resdto.StopSessionResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/session/stop [post]
func (h *SessionHandler) StopSession(c *gin.Context) {
	renterID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid booking ID format",
		})
		return
	}

	var req reqdto.StopSessionRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.sessionCommands.StopSession(c.Request.Context(), bookingID, renterID, req.EnergyWh)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Booking not found",
			})
		case errors.Is(err, commands.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "No open session for this booking",
			})
		case errors.Is(err, commands.ErrNotBookingRenter):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Only the renter may stop this session",
			})
		case errors.Is(err, commands.ErrLifecycleViolation):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Session cannot stop in the booking's current status",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromStopSessionResult(result))
}
