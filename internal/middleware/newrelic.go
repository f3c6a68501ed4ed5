package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// OrderTraceMiddleware tags the current New Relic transaction with the order
// being worked on and reports handler errors against it. It must run after
// nrgin.Middleware; without a transaction it does nothing.
func OrderTraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if orderID := c.Param("id"); orderID != "" {
			txn.AddAttribute("order.id", orderID)
		}
		if key := c.GetHeader(idempotencyHeader); key != "" {
			txn.AddAttribute("request.idempotencyKey", key)
		}

		c.Next()

		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
		txn.AddAttribute("response.status", c.Writer.Status())
	}
}
