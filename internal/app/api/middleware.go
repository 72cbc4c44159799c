package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/webshop/shop-api/internal/shared/auth"
)

const (
	headerRequestID = "X-Request-Id"
	headerCustomer  = "X-Customer"
)

// requestID attaches a correlation id to every request, honoring one
// supplied by the caller.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// principal resolves the caller credential and stores the resulting
// principal in the request context. Requests without a credential pass
// through unauthenticated; handlers decide whether that is acceptable.
func principal(resolver auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := c.GetHeader(headerCustomer)
		if credential == "" {
			c.Next()
			return
		}
		p, err := resolver.Resolve(c.Request.Context(), credential)
		if err != nil {
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}
