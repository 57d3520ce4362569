package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrilog/dii-meter/internal/types"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r, _ := setupRouter(loadConfig())
	return r
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "metrics")
}

func TestDataSourcesEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/datasources", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		DataSources []string `json:"datasources"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"cronometer", "myfitnesspal"}, body.DataSources)
}

func TestScoreEndpoint(t *testing.T) {
	r := newTestRouter(t)

	payload := `{"source":"cronometer","row":{"Fiber (g)":23.7,"Boron (mg)":3,"Energy (kcal)":null}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/score", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body types.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "cronometer", body.Source)
	assert.InDelta(t, -0.4526, body.Total, 1e-3)
	assert.Equal(t, "neutral", string(body.Classification))
	assert.Len(t, body.Contributions, 45)
	assert.InDelta(t, -0.4526, body.Contributions["FIBER_DII"], 1e-3)
	assert.Zero(t, body.Contributions["KCAL_DII"])
}

func TestScoreEndpointUnknownSource(t *testing.T) {
	r := newTestRouter(t)

	payload := `{"source":"loseit","row":{"Fiber (g)":10}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/score", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"validation"`)
}

func TestScoreEndpointMalformedBody(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"missing source", `{"row":{"Fiber (g)":10}}`},
		{"missing row", `{"source":"cronometer"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/score", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	r := newTestRouter(t)

	payload := `{"source":"cronometer","row":{"Fiber (g)":2,"Saturated (g)":45}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body types.AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, body.Total, body.Report.Total)
	require.Len(t, body.Report.Items, 2)
	assert.Len(t, body.Report.Leads, 2)

	// Both nutrients push the score up, so both carry actionable advice.
	for _, item := range body.Report.Items {
		assert.Positive(t, item.Contribution)
		assert.True(t, item.PercentOfTotal.Valid)
	}
}

func TestAnalyzeCSVEndpoint(t *testing.T) {
	r := newTestRouter(t)

	csvData := strings.Join([]string{
		"Date,Meal,Fiber (g),Energy (kcal),Boron (mg)",
		"2024-01-01,Breakfast,10,600,1",
		"2024-01-01,Dinner,13.7,1456,2",
		"2024-01-02,Breakfast,5,2056,1",
	}, "\n")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("source", "cronometer"))
	part, err := mw.CreateFormFile("file", "export.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvData))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body types.CSVAnalysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "cronometer", body.Source)
	require.Len(t, body.Days, 2, "meal rows group into days")
	assert.Equal(t, "2024-01-01", body.Days[0].Date)
	assert.Equal(t, "2024-01-02", body.Days[1].Date)
	assert.Contains(t, body.RecognizedColumns, "Fiber (g)")
	assert.Contains(t, body.UnrecognizedColumns, "Boron (mg)")

	// Day one sums to 23.7 g fiber and 2056 kcal, so fiber is its only
	// contributor and the day lands in the neutral band.
	day1 := body.Days[0].Report
	assert.InDelta(t, -0.4526, day1.Total, 1e-3)
	assert.Equal(t, "neutral", string(day1.Classification))

	// The average total is the mean of the per-day totals.
	expected := (day1.Total + body.Days[1].Report.Total) / 2
	assert.InDelta(t, expected, body.Average.Total, 1e-9)
}

func TestAnalyzeCSVEndpointRejectsUnknownSource(t *testing.T) {
	r := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("source", "loseit"))
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeCSVEndpointRequiresFile(t *testing.T) {
	r := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("source", "cronometer"))
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"validation"`)
}

func TestScoreEndpointCaching(t *testing.T) {
	r := newTestRouter(t)

	payload := `{"source":"cronometer","row":{"Fiber (g)":23.7}}`
	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/score", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	first := send()
	require.Equal(t, http.StatusOK, first.Code)

	second := send()
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cache/stats", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, float64(1), stats["active_items"], "identical requests share one cache entry")
}
