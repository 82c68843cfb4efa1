package handler

import (
	"net/http"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/apierror"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/dto"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/service"

	"github.com/gin-gonic/gin"
)

type MessagesHandler struct{ svc service.InboundService }

func NewMessagesHandler(svc service.InboundService) *MessagesHandler {
	return &MessagesHandler{svc: svc}
}

// Inbound godoc
// @Summary      Channel webhook
// @Description  Accepts one forwarded chat message and runs the document pipeline. Business rejections (unknown sender, unreadable message, quota) still return 200 with the outcome in the body, so the provider never retries them; only a failure to record the message returns 5xx.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        X-Webhook-Token header string true "Shared gateway token"
// @Param        body body dto.InboundMessageRequest true "Forwarded message"
// @Success      200 {object} dto.InboundAckResponse
// @Failure      401 {object} apierror.APIError
// @Router       /v1/messages/inbound [post]
func (h *MessagesHandler) Inbound(c *gin.Context) {
	var req dto.InboundMessageRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ack, err := h.svc.HandleMessage(c.Request.Context(), req)
	if err != nil {
		// Not recorded; a 5xx tells the provider to redeliver.
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New(apierror.CodeInternal, "message could not be recorded"))
		return
	}
	c.JSON(http.StatusOK, ack)
}

// List godoc
// @Summary      Inbound message audit log
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        outcome query string false "received | created | duplicate | no_tenant | parse_failed | quota_exceeded | validation_failed"
// @Param        page    query int    false "Page (default 1)"
// @Param        limit   query int    false "Rows per page (default 50, max 200)"
// @Success      200 {object} dto.MessageListResponse
// @Router       /v1/messages [get]
func (h *MessagesHandler) List(c *gin.Context) {
	var filter dto.MessageFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.ListMessages(c.Request.Context(), authedUserID(c), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
