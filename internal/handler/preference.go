package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"propnest/internal/model"
	"propnest/internal/service"
)

// PreferenceHandler turns onboarding answers into filters and results
type PreferenceHandler struct {
	buildingService *service.BuildingService
}

// NewPreferenceHandler creates a new preference handler
func NewPreferenceHandler(buildingService *service.BuildingService) *PreferenceHandler {
	return &PreferenceHandler{
		buildingService: buildingService,
	}
}

// Filters handles POST /api/v1/preferences/filters
func (h *PreferenceHandler) Filters(c *gin.Context) {
	var req model.PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	resp, err := h.buildingService.PreferenceFilters(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Results handles POST /api/v1/preferences/results
func (h *PreferenceHandler) Results(c *gin.Context) {
	var req model.PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	resp, err := h.buildingService.PreferenceResults(c.Request.Context(), currentSession(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
