package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MapsKeyPath is where the maps-key function is mounted
const MapsKeyPath = "/functions/v1/maps-key"

// RateLimiter counts hits per client within a fixed window
type RateLimiter interface {
	Allow(ctx context.Context, scope, clientIP string, limit int64) (bool, error)
}

var mapsKeyCORS = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
	"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
}

// MapsKeyHandler is the function that hands the maps API key to the browser
type MapsKeyHandler struct {
	apiKey  string
	limiter RateLimiter
	limit   int64
}

// NewMapsKeyHandler creates the handler. limiter may be nil to disable
// throttling; limit is the number of requests per client per minute.
func NewMapsKeyHandler(apiKey string, limiter RateLimiter, limit int64) *MapsKeyHandler {
	return &MapsKeyHandler{apiKey: apiKey, limiter: limiter, limit: limit}
}

// Serve handles every method on MapsKeyPath
func (h *MapsKeyHandler) Serve(c *gin.Context) {
	for k, v := range mapsKeyCORS {
		c.Header(k, v)
	}

	switch c.Request.Method {
	case http.MethodOptions:
		c.String(http.StatusOK, "ok")
		return
	case http.MethodGet, http.MethodPost:
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return
	}

	if h.limiter != nil && h.limit > 0 {
		ok, err := h.limiter.Allow(c.Request.Context(), "maps-key", c.ClientIP(), h.limit)
		if err != nil {
			requestLogger(c).Warn("rate limiter unavailable", zap.Error(err))
		} else if !ok {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
	}

	if h.apiKey == "" {
		requestLogger(c).Error("maps api key is not configured")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Maps API key not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"apiKey": h.apiKey})
}
