package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/taladar/sl-map-tools/internal/render"
	"github.com/taladar/sl-map-tools/internal/resolver"
)

type Handler struct {
	renderer *render.Renderer
	resolver *resolver.Resolver
	validate *validator.Validate
}

func NewHandler(renderer *render.Renderer, resolver *resolver.Resolver, validate *validator.Validate) *Handler {
	return &Handler{
		renderer: renderer,
		resolver: resolver,
		validate: validate,
	}
}

func (h *Handler) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
