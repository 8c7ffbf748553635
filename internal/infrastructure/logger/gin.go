package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GinOption configures GinMiddleware
type GinOption func(*ginOptions)

type ginOptions struct {
	skip    map[string]struct{}
	headers map[string]string
}

// SkipPaths turns off access logging for exact request paths such as
// health probes and the metrics scrape
func SkipPaths(paths ...string) GinOption {
	return func(o *ginOptions) {
		for _, p := range paths {
			o.skip[p] = struct{}{}
		}
	}
}

// HeaderField copies a request header into the request logger as field.
// Absent headers add nothing.
func HeaderField(header, field string) GinOption {
	return func(o *ginOptions) {
		o.headers[header] = field
	}
}

// GinMiddleware attaches a request-scoped logger to the request context and
// writes one access log line per request. Services reach the logger with L.
func GinMiddleware(logger *zap.Logger, opts ...GinOption) gin.HandlerFunc {
	o := ginOptions{skip: map[string]struct{}{}, headers: map[string]string{}}
	for _, opt := range opts {
		opt(&o)
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
		}
		for header, field := range o.headers {
			if v := c.GetHeader(header); v != "" {
				fields = append(fields, zap.String(field, v))
			}
		}
		ctx := WithContext(c.Request.Context(), logger.With(fields...))
		if requestID := c.GetString("request_id"); requestID != "" {
			ctx = WithRequestID(ctx, requestID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if _, skipped := o.skip[path]; skipped {
			return
		}

		status := c.Writer.Status()
		access := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if route := c.FullPath(); route != "" && route != path {
			access = append(access, zap.String("route", route))
		}
		if len(c.Errors) > 0 {
			access = append(access, zap.Strings("errors", c.Errors.Errors()))
		}

		// handlers may have added shop and actor to the context logger
		l := L(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			l.Error("HTTP Request", access...)
		case status >= http.StatusBadRequest:
			l.Warn("HTTP Request", access...)
		default:
			l.Info("HTTP Request", access...)
		}
	}
}

// Recovery turns a handler panic into a 500 and logs it with the request's
// logger when one is attached, so the entry carries the request ID.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				l := logger
				if reqLogger, ok := c.Request.Context().Value(loggerKey).(*zap.Logger); ok {
					l = reqLogger
				}
				l.Error("Panic recovered",
					zap.Any("error", err),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}
