package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) admit(c *gin.Context) {
	data, ok := bindDict(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.Referrals.Admit(c.Request.Context(), data))
}

func (h *Handler) refer(c *gin.Context) {
	data, ok := bindDict(c)
	if !ok {
		return
	}
	ack, err := h.Referrals.Refer(c.Request.Context(), data)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ack)
}
