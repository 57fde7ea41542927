// internal/api/analysis.go
package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dermascan/dermascan-go/internal/analysis"
	"github.com/dermascan/dermascan-go/internal/errors"
)

// initAnalysisRoutes registers analysis submission and history endpoints
func (c *Controller) initAnalysisRoutes() {
	c.Group.POST("/analyze", c.PostAnalyze)
	c.Group.GET("/history", c.GetHistory)
}

// PostAnalyze accepts a multipart lesion image submission, runs it through
// the pipeline and returns the persisted analysis.
func (c *Controller) PostAnalyze(ctx echo.Context) error {
	file, err := ctx.FormFile("image")
	if err != nil {
		return c.HandleError(ctx, err, "Missing image file in form data", http.StatusBadRequest)
	}

	src, err := file.Open()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to open uploaded image", http.StatusBadRequest)
	}
	defer func() {
		if err := src.Close(); err != nil {
			c.Debug("Failed to close uploaded file: %v", err)
		}
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read uploaded image", http.StatusBadRequest)
	}

	req := analysis.Request{
		ImageData:       data,
		ImageName:       file.Filename,
		PatientUsername: ctx.FormValue("username"),
		BodyLocation:    ctx.FormValue("location"),
	}

	result, err := c.Pipeline.Analyze(ctx.Request().Context(), req)
	if err != nil {
		return c.HandleError(ctx, err, "Analysis failed", statusForError(err))
	}

	// Stored history changed, drop cached pages
	c.historyCache.Flush()

	return ctx.JSON(http.StatusCreated, result)
}

// GetHistory returns stored analyses, newest first
func (c *Controller) GetHistory(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	if limit <= 0 {
		limit = 100
	} else if limit > 1000 {
		limit = 1000
	}

	cacheKey := fmt.Sprintf("history:%d", limit)
	if cached, found := c.historyCache.Get(cacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	entries, err := c.Pipeline.History(limit)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to retrieve analysis history", http.StatusInternalServerError)
	}

	c.historyCache.SetDefault(cacheKey, entries)

	return ctx.JSON(http.StatusOK, entries)
}

// statusForError maps pipeline errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, errors.ErrModelNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, errors.ErrEmptyInput),
		errors.Is(err, errors.ErrImageDecode),
		errors.IsCategory(err, errors.CategoryValidation),
		errors.IsCategory(err, errors.CategoryImageDecode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
