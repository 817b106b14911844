package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/episode"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/middleware"
)

func (h *Handler) listEpisodes(c *gin.Context) {
	active, ok := parseQueryBool(c, "active")
	if !ok {
		return
	}
	eps, err := h.Episodes.List(c.Request.Context(), middleware.Caller(c), c.Query("tag"), active)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, eps)
}

func (h *Handler) createEpisode(c *gin.Context) {
	data, ok := bindDict(c)
	if !ok {
		return
	}
	ep, err := h.Episodes.Create(c.Request.Context(), middleware.Caller(c), data)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ep)
}

func (h *Handler) getEpisode(c *gin.Context) {
	id, ok := parseID(c, episode.ErrEpisodeNotFound)
	if !ok {
		return
	}
	ep, err := h.Episodes.Get(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ep)
}

func (h *Handler) updateEpisode(c *gin.Context) {
	id, ok := parseID(c, episode.ErrEpisodeNotFound)
	if !ok {
		return
	}
	data, ok := bindDict(c)
	if !ok {
		return
	}
	ep, err := h.Episodes.Update(c.Request.Context(), middleware.Caller(c), id, data)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, ep)
}

func (h *Handler) getPatient(c *gin.Context) {
	id, ok := parseID(c, patient.ErrPatientNotFound)
	if !ok {
		return
	}
	p, err := h.Patients.Get(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) getTagging(c *gin.Context) {
	id, ok := parseID(c, episode.ErrEpisodeNotFound)
	if !ok {
		return
	}
	tags, err := h.Tagging.Get(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *Handler) updateTagging(c *gin.Context) {
	id, ok := parseID(c, episode.ErrEpisodeNotFound)
	if !ok {
		return
	}
	data, ok := bindDict(c)
	if !ok {
		return
	}
	tags, err := h.Tagging.Update(c.Request.Context(), middleware.Caller(c), id, data)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, tags)
}
