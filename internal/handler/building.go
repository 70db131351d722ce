package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"propnest/internal/geo"
	"propnest/internal/model"
	"propnest/internal/service"
)

// BuildingHandler handles building discovery HTTP requests
type BuildingHandler struct {
	buildingService *service.BuildingService
}

// NewBuildingHandler creates a new building handler
func NewBuildingHandler(buildingService *service.BuildingService) *BuildingHandler {
	return &BuildingHandler{
		buildingService: buildingService,
	}
}

// Search handles POST /api/v1/buildings/search
func (h *BuildingHandler) Search(c *gin.Context) {
	var req model.BuildingSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.buildingService.Search(c.Request.Context(), currentSession(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/v1/buildings/:id, where id may also be a slug
func (h *BuildingHandler) Get(c *gin.Context) {
	detail, err := h.buildingService.GetBuilding(c.Request.Context(), currentSession(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Similar handles GET /api/v1/buildings/:id/similar?limit=N
func (h *BuildingHandler) Similar(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "6"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	results, err := h.buildingService.Similar(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Map handles GET /api/v1/buildings/map?precision=N&collections=a,b
func (h *BuildingHandler) Map(c *gin.Context) {
	precision, err := strconv.ParseUint(c.DefaultQuery("precision", strconv.Itoa(geo.DefaultPrecision)), 10, 8)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid precision"})
		return
	}

	var collections []string
	if raw := c.Query("collections"); raw != "" {
		collections = strings.Split(raw, ",")
	}

	clusters, err := h.buildingService.MapClusters(c.Request.Context(), uint(precision), collections)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"clusters": clusters})
}
