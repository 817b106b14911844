package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/subrecord"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/middleware"
)

func (h *Handler) createSubrecord(t *subrecord.Type) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, ok := bindDict(c)
		if !ok {
			return
		}
		ep, err := h.Subrecords.Create(c.Request.Context(), middleware.Caller(c), t, data)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ep)
	}
}

func (h *Handler) getSubrecord(t *subrecord.Type) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, subrecord.ErrNotFound)
		if !ok {
			return
		}
		item, err := h.Subrecords.Get(c.Request.Context(), t, id)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func (h *Handler) updateSubrecord(t *subrecord.Type) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, subrecord.ErrNotFound)
		if !ok {
			return
		}
		data, ok := bindDict(c)
		if !ok {
			return
		}
		item, err := h.Subrecords.Update(c.Request.Context(), middleware.Caller(c), t, id, data)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, item)
	}
}

func (h *Handler) deleteSubrecord(t *subrecord.Type) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, subrecord.ErrNotFound)
		if !ok {
			return
		}
		if err := h.Subrecords.Delete(c.Request.Context(), middleware.Caller(c), t, id); err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, "deleted")
	}
}
