package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"user-service/pkg/logger"
)

// RequestIDHeader is the header carrying the request id in and out.
const RequestIDHeader = "X-Request-ID"

// RequestID extracts the request id from the inbound header or generates a
// fresh one, echoes it back in the response header, and stores it in the
// request context so downstream log lines carry it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}
