package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"propnest/internal/model"
	"propnest/internal/service"
	"propnest/internal/shortlist"
)

// ShortlistHandler handles shortlist HTTP requests
type ShortlistHandler struct {
	controller *shortlist.Controller
}

// NewShortlistHandler creates a new shortlist handler
func NewShortlistHandler(controller *shortlist.Controller) *ShortlistHandler {
	return &ShortlistHandler{
		controller: controller,
	}
}

// Toggle handles POST /api/v1/shortlist/:buildingId/toggle
func (h *ShortlistHandler) Toggle(c *gin.Context) {
	buildingID := c.Param("buildingId")
	if buildingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing building id"})
		return
	}

	resp, err := h.controller.Toggle(c.Request.Context(), currentSession(c), buildingID)
	switch {
	case service.IsNotFound(err):
		c.JSON(http.StatusNotFound, resp)
	case err != nil:
		requestLogger(c).Error("shortlist toggle failed", zap.String("building_id", buildingID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, resp)
	case resp.AuthRequired:
		c.JSON(http.StatusUnauthorized, resp)
	default:
		c.JSON(http.StatusOK, resp)
	}
}

// List handles GET /api/v1/shortlist. The body is a loading, success or
// failure envelope around the shortlisted building ids.
func (h *ShortlistHandler) List(c *gin.Context) {
	session := currentSession(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":         "Sign in to see your shortlist",
			"auth_required": true,
		})
		return
	}

	snapshot := h.controller.Snapshot(c.Request.Context(), session.UserID)
	if snapshot.Status == model.StatusFailure {
		c.JSON(http.StatusServiceUnavailable, snapshot)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
