// internal/api/catalog.go
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dermascan/dermascan-go/internal/datastore"
)

// initCatalogRoutes registers diagnosis catalog endpoints
func (c *Controller) initCatalogRoutes() {
	c.Group.GET("/catalog", c.GetCatalog)
	c.Group.POST("/catalog/reseed", c.PostReseed)
}

// catalogEntryResponse is a diagnosis entry with its recommendations attached.
type catalogEntryResponse struct {
	datastore.DiagnosisEntry
	Recommendations []string `json:"recommendations"`
}

// GetCatalog returns the stored diagnosis catalog, code order
func (c *Controller) GetCatalog(ctx echo.Context) error {
	entries, err := c.DS.CatalogEntries()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to retrieve diagnosis catalog", http.StatusInternalServerError)
	}

	response := make([]catalogEntryResponse, 0, len(entries))
	for _, entry := range entries {
		recs, err := c.DS.RecommendationsForEntry(entry.ID)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to retrieve recommendations", http.StatusInternalServerError)
		}
		texts := make([]string, 0, len(recs))
		for _, rec := range recs {
			texts = append(texts, rec.Text)
		}
		response = append(response, catalogEntryResponse{DiagnosisEntry: entry, Recommendations: texts})
	}

	return ctx.JSON(http.StatusOK, response)
}

// PostReseed rebuilds the diagnosis catalog from the built-in class table.
// This is destructive: stored analyses referencing the old catalog are
// removed together with it.
func (c *Controller) PostReseed(ctx echo.Context) error {
	if err := c.Pipeline.Reseed(); err != nil {
		return c.HandleError(ctx, err, "Failed to reseed diagnosis catalog", http.StatusInternalServerError)
	}

	// History rows were cleared along with the catalog
	c.historyCache.Flush()

	c.apiLogger.Info("Diagnosis catalog reseeded", "ip", ctx.RealIP())

	return ctx.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Diagnosis catalog reseeded",
	})
}
