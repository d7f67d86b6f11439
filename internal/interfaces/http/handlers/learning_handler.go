package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	applearning "github.com/wucy1/ProDocuX/internal/application/learning"
	domrecord "github.com/wucy1/ProDocuX/internal/domain/record"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	"github.com/wucy1/ProDocuX/pkg/types/record"
)

// LearningHandler serves the correction-submission endpoints.
type LearningHandler struct {
	service *applearning.Service
	logger  logging.Logger
}

// NewLearningHandler creates a LearningHandler.
func NewLearningHandler(service *applearning.Service, logger logging.Logger) *LearningHandler {
	return &LearningHandler{
		service: service,
		logger:  logger.Named("learning-handler"),
	}
}

// RegisterRoutes mounts the learning endpoints on the API group.
func (h *LearningHandler) RegisterRoutes(api *gin.RouterGroup) {
	g := api.Group("/learning")
	g.POST("/json", h.LearnJSON)
	g.POST("/word", h.LearnWord)
	g.POST("/works/:workID/repeated", h.LearnRepeated)
	g.GET("/works/:workID/trends", h.Trends)
	g.DELETE("/works/:workID/history", h.ClearHistory)
}

// learnJSONRequest is the body of POST /learning/json.  Original and
// Corrected accept either a JSON object or a string holding raw extraction
// output (fenced blocks and surrounding prose included).
type learnJSONRequest struct {
	WorkID    string          `json:"work_id" binding:"required"`
	Profile   string          `json:"profile" binding:"required"`
	Original  json.RawMessage `json:"original" binding:"required"`
	Corrected json.RawMessage `json:"corrected" binding:"required"`
}

// LearnJSON handles POST /learning/json.
func (h *LearningHandler) LearnJSON(c *gin.Context) {
	var req learnJSONRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	original, err := decodeRecordField(req.Original)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	corrected, err := decodeRecordField(req.Corrected)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.service.LearnFromJSON(c.Request.Context(), applearning.JSONLearnRequest{
		WorkID:    req.WorkID,
		Profile:   req.Profile,
		Original:  original,
		Corrected: corrected,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// LearnWord handles POST /learning/word.  The request is multipart/form-data
// with fields work_id, profile, original (JSON), and the corrected document
// under "document".
func (h *LearningHandler) LearnWord(c *gin.Context) {
	workID := c.PostForm("work_id")
	profileName := c.PostForm("profile")
	if workID == "" || profileName == "" {
		respondBadRequest(c, "work_id and profile form fields are required")
		return
	}

	original, err := decodeRecordField([]byte(c.PostForm("original")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	fileHeader, err := c.FormFile("document")
	if err != nil {
		respondBadRequest(c, "document file is required")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		respondBadRequest(c, "document file is unreadable")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respondBadRequest(c, "document file is unreadable")
		return
	}

	result, err := h.service.LearnFromWord(c.Request.Context(), applearning.WordLearnRequest{
		WorkID:   workID,
		Profile:  profileName,
		Original: original,
		Document: data,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type learnRepeatedRequest struct {
	Profile string `json:"profile" binding:"required"`
}

// LearnRepeated handles POST /learning/works/:workID/repeated.
func (h *LearningHandler) LearnRepeated(c *gin.Context) {
	var req learnRepeatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.LearnFromRepeated(c.Request.Context(), c.Param("workID"), req.Profile)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Trends handles GET /learning/works/:workID/trends.
func (h *LearningHandler) Trends(c *gin.Context) {
	trends, err := h.service.Trends(c.Request.Context(), c.Param("workID"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, trends)
}

// ClearHistory handles DELETE /learning/works/:workID/history.
func (h *LearningHandler) ClearHistory(c *gin.Context) {
	if err := h.service.ClearHistory(c.Request.Context(), c.Param("workID")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// decodeRecordField accepts a record either as an inline JSON object or as
// a JSON string carrying raw extraction output, which is then run through
// the tolerant extraction decoder.
func decodeRecordField(raw json.RawMessage) (record.Record, error) {
	var rec record.Record
	if err := json.Unmarshal(raw, &rec); err == nil {
		return rec, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return domrecord.DecodeExtracted([]byte(s))
	}
	return domrecord.DecodeExtracted(raw)
}
