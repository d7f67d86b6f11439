package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	applearning "github.com/wucy1/ProDocuX/internal/application/learning"
	"github.com/wucy1/ProDocuX/internal/domain/profile"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
)

// ProfileHandler serves the profile inspection and versioning endpoints.
type ProfileHandler struct {
	service *applearning.Service
	logger  logging.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(service *applearning.Service, logger logging.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		logger:  logger.Named("profile-handler"),
	}
}

// RegisterRoutes mounts the profile endpoints on the API group.
func (h *ProfileHandler) RegisterRoutes(api *gin.RouterGroup) {
	g := api.Group("/profiles")
	g.GET("/:name", h.Get)
	g.GET("/:name/versions", h.ListVersions)
	g.POST("/:name/rollback", h.Rollback)
}

// Get handles GET /profiles/:name.  An optional ?version= query selects a
// historical version; the head is returned otherwise.
func (h *ProfileHandler) Get(c *gin.Context) {
	version := profile.LatestVersion
	if raw := c.Query("version"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			respondBadRequest(c, "version must be a positive integer")
			return
		}
		version = v
	}

	rs, err := h.service.GetProfile(c.Request.Context(), c.Param("name"), version)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

// ListVersions handles GET /profiles/:name/versions.
func (h *ProfileHandler) ListVersions(c *gin.Context) {
	versions, err := h.service.ListVersions(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

type rollbackRequest struct {
	Version int `json:"version" binding:"required"`
}

// rollbackResponse reports both the restored content and the new head
// version it was re-activated under.
type rollbackResponse struct {
	Profile    *profile.RuleSet `json:"profile"`
	NewVersion int              `json:"new_version"`
}

// Rollback handles POST /profiles/:name/rollback.
func (h *ProfileHandler) Rollback(c *gin.Context) {
	var req rollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	restored, newVersion, err := h.service.Rollback(c.Request.Context(), c.Param("name"), req.Version)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rollbackResponse{Profile: restored, NewVersion: newVersion})
}
