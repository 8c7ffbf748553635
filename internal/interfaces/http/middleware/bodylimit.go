package middleware

import (
	"net/http"

	"github.com/erp/orderhook/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimitOption configures BodyLimit
type BodyLimitOption func(*bodyLimit)

type bodyLimit struct {
	message    string
	onRejected func(c *gin.Context, declared int64)
}

// WithLimitMessage sets the message of the 413 envelope
func WithLimitMessage(message string) BodyLimitOption {
	return func(l *bodyLimit) {
		l.message = message
	}
}

// OnRejected runs fn for every request refused on its declared length,
// before the response is written. A nil fn is ignored.
func OnRejected(fn func(c *gin.Context, declared int64)) BodyLimitOption {
	return func(l *bodyLimit) {
		l.onRejected = fn
	}
}

// BodyLimit answers 413 ERR_PAYLOAD_TOO_LARGE for bodies above maxBytes.
// A declared Content-Length is refused before the handler runs; bodies
// without one fail with *http.MaxBytesError once the handler reads past
// the limit.
func BodyLimit(maxBytes int64, opts ...BodyLimitOption) gin.HandlerFunc {
	l := bodyLimit{message: "Request body exceeds maximum allowed size"}
	for _, opt := range opts {
		opt(&l)
	}

	return func(c *gin.Context) {
		if declared := c.Request.ContentLength; declared > maxBytes {
			if l.onRejected != nil {
				l.onRejected(c, declared)
			}
			c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodePayloadTooLarge), dto.NewErrorResponseWithRequestID(
				dto.ErrCodePayloadTooLarge,
				l.message,
				c.GetString("request_id"),
			))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
