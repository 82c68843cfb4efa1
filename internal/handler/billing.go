package handler

import (
	"net/http"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/apierror"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v74"
)

type BillingHandler struct{ svc service.BillingService }

func NewBillingHandler(svc service.BillingService) *BillingHandler {
	return &BillingHandler{svc: svc}
}

// Events godoc
// @Summary      Billing provider events
// @Description  Applies subscription lifecycle events to the company plan. The billing gateway has already verified the provider signature; this endpoint requires the shared webhook token. Unknown event types are acknowledged and ignored.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        X-Webhook-Token header string true "Shared gateway token"
// @Success      200 {object} map[string]bool
// @Failure      401 {object} apierror.APIError
// @Router       /v1/billing/events [post]
func (h *BillingHandler) Events(c *gin.Context) {
	var event stripe.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeValidationFailed, "invalid event payload: "+err.Error()))
		return
	}

	if err := h.svc.ApplyEvent(c.Request.Context(), event); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New(apierror.CodeInternal, "event could not be applied"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
