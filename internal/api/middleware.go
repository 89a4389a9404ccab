package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rshade/footprint/internal/logging"
)

// requestLogger assigns a trace id, attaches the logger to the request
// context and logs each request on completion.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		traceID := c.GetHeader(logging.TraceIDHeader)
		if traceID == "" {
			traceID = logging.NewTraceID()
		}
		c.Header(logging.TraceIDHeader, traceID)

		ctx := logging.ContextWithTraceID(c.Request.Context(), traceID)
		ctx = s.logger.WithContext(ctx)
		ctx = logging.ContextWithAuditLogger(ctx, s.audit)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		event := s.logger.Info()
		if status >= http.StatusInternalServerError {
			event = s.logger.Error()
		} else if status >= http.StatusBadRequest {
			event = s.logger.Warn()
		}
		event.Ctx(ctx).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().Interface("panic", rec).Str("path", c.Request.URL.Path).Msg("handler panicked")
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "internal error"})
			}
		}()
		c.Next()
	}
}
