package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"propnest/internal/auth"
	"propnest/internal/service"
)

const (
	traceIDKey = "trace_id"
	loggerKey  = "logger"
	sessionKey = "session"

	// TraceHeader carries the trace id between the gateway and the API
	TraceHeader = "X-Trace-ID"

	// AdminTokenHeader carries the shared secret of back-office endpoints
	AdminTokenHeader = "X-Admin-Token"
)

// RequestLogger attaches a request-scoped logger carrying a trace id and logs
// the start and end of every request. A valid incoming X-Trace-ID is reused.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.New().String()
		}

		reqLogger := logger.With(zap.String("trace_id", traceID))
		c.Set(traceIDKey, traceID)
		c.Set(loggerKey, reqLogger)
		c.Header(TraceHeader, traceID)

		httpLogger := reqLogger.With(
			zap.String("http_method", c.Request.Method),
			zap.String("http_path", c.Request.URL.Path),
			zap.String("remote_addr", c.ClientIP()),
		)
		start := time.Now()
		httpLogger.Debug("request started")

		c.Next()

		httpLogger.Info("request finished",
			zap.Int("status_code", c.Writer.Status()),
			zap.Int("bytes_written", c.Writer.Size()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	}
}

// Session verifies an optional bearer token. Requests without a token pass
// through anonymously; a token that fails verification is rejected with 401.
func Session(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" || verifier == nil {
			c.Next()
			return
		}

		session, err := verifier.Verify(token)
		if err != nil {
			requestLogger(c).Info("rejected access token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// AdminOnly admits requests whose X-Admin-Token matches token. With an empty
// token the guarded routes are switched off.
func AdminOnly(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin endpoints are disabled"})
			return
		}
		got := c.GetHeader(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			requestLogger(c).Warn("rejected admin token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin token"})
			return
		}
		c.Next()
	}
}

// currentSession returns the verified session, nil for anonymous requests
func currentSession(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*auth.Session)
	return s
}

func requestLogger(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}

// respondError maps service errors onto status codes
func respondError(c *gin.Context, err error) {
	switch {
	case service.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case service.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Building not found"})
	default:
		requestLogger(c).Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
