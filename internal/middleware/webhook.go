package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/apierror"

	"github.com/gin-gonic/gin"
)

const webhookTokenHeader = "X-Webhook-Token"

// WebhookAuth guards gateway-facing endpoints with a shared token. The
// gateways verify provider signatures upstream; this side only has to know
// the call came from a gateway. An unset token fails closed: no deploy
// mistake can open the webhook to the internet.
func WebhookAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := c.GetHeader(webhookTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New(apierror.CodeUnauthorized, "invalid webhook token"))
			return
		}
		c.Next()
	}
}
