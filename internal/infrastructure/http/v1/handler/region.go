package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taladar/sl-map-tools/internal/grid"
	"github.com/taladar/sl-map-tools/internal/resolver"
)

// RegionByName resolves a region name to its grid coordinates.
func (h *Handler) RegionByName(c *gin.Context) {
	name := c.Param("name")

	coords, err := h.resolver.ResolveName(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, resolver.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown region: " + name})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": name, "x": coords.X, "y": coords.Y})
}

// RegionByCoordinates resolves grid coordinates to the region name.
func (h *Handler) RegionByCoordinates(c *gin.Context) {
	x, err := strconv.ParseUint(c.Param("x"), 10, 16)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid x coordinate"})
		return
	}
	y, err := strconv.ParseUint(c.Param("y"), 10, 16)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid y coordinate"})
		return
	}

	coords := grid.Coordinates{X: uint16(x), Y: uint16(y)}
	name, err := h.resolver.ResolveCoordinates(c.Request.Context(), coords)
	if err != nil {
		if errors.Is(err, resolver.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no region at " + coords.String()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": name, "x": coords.X, "y": coords.Y})
}
