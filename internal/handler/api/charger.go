package api

import (
	"errors"
	"net/http"
	"time"

	reqdto "voltshare/internal/handler/dto/request"
	resdto "voltshare/internal/handler/dto/response"
	"voltshare/internal/handler/middleware"
	"voltshare/internal/usecase/commands"
	"voltshare/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChargerHandler struct {
	chargerCommands     commands.ChargerCommands
	chargerQueries      queries.ChargerQueries
	availabilityQueries queries.AvailabilityQueries
}

func NewChargerHandler(
	chargerCommands commands.ChargerCommands,
	chargerQueries queries.ChargerQueries,
	availabilityQueries queries.AvailabilityQueries,
) *ChargerHandler {
	return &ChargerHandler{
		chargerCommands:     chargerCommands,
		chargerQueries:      chargerQueries,
		availabilityQueries: availabilityQueries,
	}
}

// @Summary Register charger
// @Description Register a new charger listing with its pricing rule
// @Tags chargers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.RegisterChargerRequest true "Charger listing"
// @Success 201 {object} resdto.ChargerResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /chargers [post]
func (h *ChargerHandler) RegisterCharger(c *gin.Context) {
	hostID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.RegisterChargerRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	view, err := h.chargerCommands.RegisterCharger(c.Request.Context(), req.ToParams(), hostID)
	if err != nil {
		switch {
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

	c.JSON(http.StatusCreated, resdto.FromChargerView(view))
}

// @Summary Get charger
// @Description Get a charger listing by ID
// @Tags chargers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Charger ID"
// @Success 200 {object} resdto.ChargerResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /chargers/{id} [get]
func (h *ChargerHandler) GetCharger(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid charger ID format",
		})
		return
	}

	view, err := h.chargerQueries.GetByID(c.Request.Context(), id)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Charger not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromChargerView(view))
}

// @Summary List chargers
// @Description List active charger listings
// @Tags chargers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.ChargerResponse
// @Failure 401 {object} map[string]string
// @Router /chargers [get]
func (h *ChargerHandler) ListChargers(c *gin.Context) {
	views, err := h.chargerQueries.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	response := make([]*resdto.ChargerResponse, len(views))
	for i, view := range views {
		response[i] = resdto.FromChargerView(view)
	}
	c.JSON(http.StatusOK, response)
}

// @Summary Set charger active state
// @Description Activate or deactivate a charger listing; host only
// @Tags chargers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Charger ID"
// @Param request body reqdto.SetChargerActiveRequest true "Active flag"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /chargers/{id}/active [put]
func (h *ChargerHandler) SetChargerActive(c *gin.Context) {
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
			"error": "Invalid charger ID format",
		})
		return
	}

	var req reqdto.SetChargerActiveRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.chargerCommands.SetChargerActive(c.Request.Context(), id, hostID, *req.IsActive); err != nil {
		switch {
		case errors.Is(err, commands.ErrChargerNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Charger not found",
			})
		case errors.Is(err, commands.ErrNotChargerHost):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Only the host may change this charger",
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

// @Summary Charger availability
// @Description List free slots on a charger inside a query window
// @Tags chargers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Charger ID"
// @Param from query string true "Window start (RFC3339)"
// @Param to query string true "Window end (RFC3339)"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /chargers/{id}/availability [get]
func (h *ChargerHandler) GetAvailability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid charger ID format",
		})
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid 'from' parameter, expected RFC3339",
		})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid 'to' parameter, expected RFC3339",
		})
		return
	}

	slots, err := h.availabilityQueries.FreeSlots(c.Request.Context(), id, from, to)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrInvalidWindow):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Availability window must be ordered, non-empty and at most 31 days",
			})
		case isNotFound(err):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Charger not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromFreeSlots(id, from.UTC(), to.UTC(), slots))
}
