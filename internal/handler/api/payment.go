package api

import (
	"errors"
	"net/http"

	reqdto "voltshare/internal/handler/dto/request"
	"voltshare/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentCommands commands.PaymentCommands
}

func NewPaymentHandler(paymentCommands commands.PaymentCommands) *PaymentHandler {
	return &PaymentHandler{paymentCommands: paymentCommands}
}

// @Summary Payment webhook
// @Description Apply an asynchronous payment verdict to a booking
// @Tags payments
// @Accept json
// @Produce json
// @Param request body reqdto.PaymentWebhookRequest true "Payment verdict"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /payments/webhook [post]
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	var req reqdto.PaymentWebhookRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.paymentCommands.HandlePaymentResult(c.Request.Context(), req.ToParams()); err != nil {
		switch {
		case errors.Is(err, commands.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Booking not found",
			})
		case errors.Is(err, commands.ErrLifecycleViolation):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Payment verdict conflicts with the booking's current status",
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
