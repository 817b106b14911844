package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/middleware"
)

func (h *Handler) flows(c *gin.Context) {
	c.JSON(http.StatusOK, h.Schema.Flows())
}

func (h *Handler) records(c *gin.Context) {
	c.JSON(http.StatusOK, h.Schema.ListRecords())
}

func (h *Handler) listSchemas(c *gin.Context) {
	c.JSON(http.StatusOK, h.Schema.ListSchemas())
}

func (h *Handler) extractSchema(c *gin.Context) {
	c.JSON(http.StatusOK, h.Schema.ExtractSchema())
}

func (h *Handler) options(c *gin.Context) {
	data, err := h.Options.Options(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) userProfile(c *gin.Context) {
	profile, err := h.Profiles.Get(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
