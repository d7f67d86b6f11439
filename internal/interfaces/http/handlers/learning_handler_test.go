package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applearning "github.com/wucy1/ProDocuX/internal/application/learning"
	"github.com/wucy1/ProDocuX/internal/config"
	"github.com/wucy1/ProDocuX/internal/domain/document"
	"github.com/wucy1/ProDocuX/internal/domain/profile"
	"github.com/wucy1/ProDocuX/internal/infrastructure/document/docx"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	filestore "github.com/wucy1/ProDocuX/internal/infrastructure/storage/file"
	"github.com/wucy1/ProDocuX/internal/infrastructure/storage/memory"
	learningtypes "github.com/wucy1/ProDocuX/pkg/types/learning"
)

// buildDocx zips the body XML into a minimal OOXML package.
func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(
		`<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
			`<w:body>` + body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newWordTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.NewNopLogger()
	store, err := filestore.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	rs, err := profile.NewRuleSet("cosmetic-msds", "work-1", []profile.Field{
		{Name: "product_name"},
	})
	require.NoError(t, err)
	_, err = store.Save(context.Background(), rs)
	require.NoError(t, err)

	var cfg config.Config
	config.ApplyDefaults(&cfg)
	svc, err := applearning.NewService(cfg.Learning, time.Minute, applearning.Dependencies{
		Profiles:  store,
		Events:    memory.NewEventStore(),
		Extractor: document.NewExtractor(docx.NewParser(), logger),
		Logger:    logger,
	})
	require.NoError(t, err)

	engine := gin.New()
	NewLearningHandler(svc, logger).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestLearnWordMultipartUpload(t *testing.T) {
	engine := newWordTestEngine(t)

	docData := buildDocx(t, `
		<w:p>
			<w:r><w:t>product_name: </w:t></w:r>
			<w:r><w:rPr><w:color w:val="FF0000"/></w:rPr><w:t>hydra serum</w:t></w:r>
		</w:p>`)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("work_id", "work-1"))
	require.NoError(t, mw.WriteField("profile", "cosmetic-msds"))
	require.NoError(t, mw.WriteField("original", `{"product_name": "Hydra Serum"}`))
	fw, err := mw.CreateFormFile("document", "corrected.docx")
	require.NoError(t, err)
	_, err = fw.Write(docData)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/learning/word", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result learningtypes.LearningResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Transformations, 1)
	assert.True(t, result.Transformations[0].ForcedByMarker)
	assert.InDelta(t, 1.0, result.Transformations[0].Confidence, 1e-9)
	assert.True(t, result.Applied)
}

func TestLearnWordMissingFields(t *testing.T) {
	engine := newWordTestEngine(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("work_id", "work-1"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/learning/word", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
