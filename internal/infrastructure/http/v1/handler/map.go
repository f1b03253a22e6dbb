package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taladar/sl-map-tools/internal/render"
	"github.com/taladar/sl-map-tools/internal/grid"
	"github.com/taladar/sl-map-tools/internal/route"
)

type mapQuery struct {
	LowerLeftX         uint16 `form:"lower_left_x" validate:"required"`
	LowerLeftY         uint16 `form:"lower_left_y" validate:"required"`
	UpperRightX        uint16 `form:"upper_right_x" validate:"required"`
	UpperRightY        uint16 `form:"upper_right_y" validate:"required"`
	MaxWidth           uint32 `form:"max_width"`
	MaxHeight          uint32 `form:"max_height"`
	MissingRegionColor string `form:"missing_region_color"`
	TolerateFailures   bool   `form:"tolerate_failures"`
}

// Map composes the mosaic for the requested rectangle and returns it as
// PNG. The derived values go into response headers so image clients can
// stay oblivious to them.
func (h *Handler) Map(c *gin.Context) {
	var query mapQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.validate.Struct(query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rect, err := grid.NewRectangle(
		grid.Coordinates{X: query.LowerLeftX, Y: query.LowerLeftY},
		grid.Coordinates{X: query.UpperRightX, Y: query.UpperRightY},
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := render.RenderOptions{
		MaxWidth:         query.MaxWidth,
		MaxHeight:        query.MaxHeight,
		TolerateFailures: query.TolerateFailures,
	}
	if query.MissingRegionColor != "" {
		missing, err := route.ParseColor(query.MissingRegionColor)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.MissingRegionColor = &missing
	}

	data, rendered, err := h.renderer.EncodePNG(c.Request.Context(), rect, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.Header("X-Map-Zoom-Level", strconv.Itoa(int(rendered.Zoom)))
	c.Header("X-Map-Aspect-Ratio", strconv.FormatFloat(rendered.AspectRatio, 'g', -1, 64))
	c.Header("X-PPS-HUD-Config", rendered.PPSHUDConfig)
	c.Data(http.StatusOK, "image/png", data)
}
