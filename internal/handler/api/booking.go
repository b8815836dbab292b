package api

import (
	"errors"
	"net/http"

	reqdto "voltshare/internal/handler/dto/request"
	resdto "voltshare/internal/handler/dto/response"
	"voltshare/internal/handler/middleware"
	"voltshare/internal/usecase/commands"
	"voltshare/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	bookingCommands commands.BookingCommands
	bookingQueries  queries.BookingQueries
}

func NewBookingHandler(bookingCommands commands.BookingCommands, bookingQueries queries.BookingQueries) *BookingHandler {
	return &BookingHandler{
		bookingCommands: bookingCommands,
		bookingQueries:  bookingQueries,
	}
}

// @Summary Create booking
// @Description Claim a time slot on a charger with idempotency key
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key for duplicate prevention"
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.CreateBookingResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	renterID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	idempotencyKey, err := h.getIdempotencyKey(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.bookingCommands.CreateBooking(c.Request.Context(), req.ToParams(), renterID, idempotencyKey)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrChargerNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Charger not found",
			})
		case errors.Is(err, commands.ErrInvalidTimeSlot):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid time slot",
			})
		case errors.Is(err, commands.ErrSlotConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Time slot is already booked",
			})
		case errors.Is(err, commands.ErrDuplicateRequest):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Duplicate booking request with different parameters",
			})
		case errors.Is(err, commands.ErrIdempotencyInProgress):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Booking request is currently being processed",
			})
		case errors.Is(err, commands.ErrDomainValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Domain validation failed",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.JSON(status, resdto.FromCreateBookingResult(result))
}

// @Summary Get booking
// @Description Get booking by ID; only the renter or the charger host may read it
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	actorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid booking ID format",
		})
		return
	}

	view, err := h.bookingQueries.GetByID(c.Request.Context(), actorID, id)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrBookingAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Access to this booking is denied",
			})
		case isNotFound(err):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Booking not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

// @Summary List bookings
// @Description List the current renter's bookings, newest first, keyset paginated
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param after query string false "Opaque cursor from a previous page"
// @Param limit query int false "Page size (default 20, max 200)"
// @Success 200 {object} resdto.BookingListResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	renterID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var cursor *queries.Cursor
	if after := c.Query("after"); after != "" {
		cursor = &queries.Cursor{After: after}
	}
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := parsePositiveInt(limitStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid limit parameter",
			})
			return
		}
		limit = parsed
	}

	items, next, err := h.bookingQueries.ListByRenter(c.Request.Context(), renterID, cursor, limit)
	if err != nil {
		if cursor != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid list cursor",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingList(items, next))
}

// @Summary Cancel booking
// @Description Cancel a booking; allowed for the renter and the charger host
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.CancelBookingRequest false "Cancellation reason"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	actorID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid booking ID format",
		})
		return
	}

	var req reqdto.CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request format",
			})
			return
		}
	}

	if err := h.bookingCommands.CancelBooking(c.Request.Context(), id, actorID, req.TrimmedReason()); err != nil {
		switch {
		case errors.Is(err, commands.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Booking not found",
			})
		case errors.Is(err, commands.ErrNotBookingParticipant):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Only the renter or the host may cancel this booking",
			})
		case errors.Is(err, commands.ErrLifecycleViolation):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Booking cannot be cancelled in its current status",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Accept booking
// @Description Host confirms a pending booking request
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/accept [post]
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	hostID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid booking ID format",
		})
		return
	}

	if err := h.bookingCommands.AcceptBooking(c.Request.Context(), id, hostID); err != nil {
		switch {
		case errors.Is(err, commands.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Booking not found",
			})
		case errors.Is(err, commands.ErrNotChargerHost):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Only the charger host may accept this booking",
			})
		case errors.Is(err, commands.ErrLifecycleViolation):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Booking cannot be accepted in its current status",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *BookingHandler) getIdempotencyKey(c *gin.Context) (uuid.UUID, error) {
	keyStr := c.GetHeader("Idempotency-Key")
	if keyStr == "" {
		return uuid.Nil, commands.ErrIdempotencyKeyRequired
	}

	key, err := uuid.Parse(keyStr)
	if err != nil {
		return uuid.Nil, errors.New("invalid idempotency key format")
	}

	return key, nil
}
