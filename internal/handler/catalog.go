package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"propnest/internal/catalog"
)

// CatalogHandler serves the filter bar and onboarding reference data
type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// Get handles GET /api/v1/catalog
func (h *CatalogHandler) Get(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, gin.H{
		"site":            h.catalog.Site,
		"localities":      h.catalog.Localities,
		"collections":     h.catalog.Collections,
		"budget_brackets": h.catalog.Brackets().Brackets(),
		"lifestyles":      h.catalog.Lifestyles,
	})
}
