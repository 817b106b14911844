// Package v1 serves the /api/v0 JSON API and the legacy upstream endpoints.
package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/subrecord"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/schema"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/service"
)

// Services is everything the handlers call into.
type Services struct {
	Registry   *subrecord.Registry
	Schema     *schema.Schema
	Episodes   *service.EpisodeService
	Patients   *service.PatientService
	Subrecords *service.SubrecordService
	Tagging    *service.TaggingService
	Options    *service.OptionsService
	Profiles   *service.ProfileService
	Referrals  *service.ReferralService
	Auth       *service.AuthService
}

type Handler struct {
	Services
	routes map[string]string
}

func NewHandler(s Services) *Handler {
	return &Handler{Services: s, routes: map[string]string{}}
}

// RegisterAPI mounts the resource routes on api. Callers are expected to
// have run middleware.Authenticate already.
func (h *Handler) RegisterAPI(api *gin.RouterGroup) {
	api.GET("/", h.apiRoot)

	h.route(api, "episode")
	api.GET("/episode/", h.listEpisodes)
	api.POST("/episode/", h.createEpisode)
	api.GET("/episode/:id/", h.getEpisode)
	api.PUT("/episode/:id/", h.updateEpisode)

	h.route(api, "patient")
	api.GET("/patient/:id/", h.getPatient)

	h.route(api, "flow")
	api.GET("/flow/", h.flows)
	h.route(api, "record")
	api.GET("/record/", h.records)
	h.route(api, "list-schema")
	api.GET("/list-schema/", h.listSchemas)
	h.route(api, "extract-schema")
	api.GET("/extract-schema/", h.extractSchema)
	h.route(api, "options")
	api.GET("/options/", h.options)
	h.route(api, "userprofile")
	api.GET("/userprofile/", h.userProfile)

	h.route(api, "tagging")
	api.GET("/tagging/:id/", h.getTagging)
	api.PUT("/tagging/:id/", h.updateTagging)

	for _, t := range h.Registry.Types() {
		h.route(api, t.APIName)
		base := "/" + t.APIName
		api.POST(base+"/", h.createSubrecord(t))
		api.GET(base+"/:id/", h.getSubrecord(t))
		api.PUT(base+"/:id/", h.updateSubrecord(t))
		api.DELETE(base+"/:id/", h.deleteSubrecord(t))
	}
}

// RegisterAuth mounts login, refresh and password change on group.
func (h *Handler) RegisterAuth(group *gin.RouterGroup) {
	group.POST("/login/", h.login)
	group.POST("/refresh/", h.refresh)
	group.POST("/password/", middleware.RequireAuth(), h.changePassword)
}

// RegisterLegacy mounts the upstream admit and refer endpoints.
func (h *Handler) RegisterLegacy(r gin.IRoutes) {
	r.POST("/admit/", h.admit)
	r.POST("/refer/", h.refer)
}

func (h *Handler) route(api *gin.RouterGroup, name string) {
	h.routes[name] = strings.TrimSuffix(api.BasePath(), "/") + "/" + name + "/"
}

// apiRoot lists every resource with its absolute URL.
func (h *Handler) apiRoot(c *gin.Context) {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	out := make(map[string]string, len(h.routes))
	for name, path := range h.routes {
		out[name] = scheme + "://" + c.Request.Host + path
	}
	c.JSON(http.StatusOK, out)
}
