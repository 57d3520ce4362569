package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompressedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Compression(DefaultCompressionConfig()))
	r.GET("/report", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"payload": strings.Repeat("contribution ", 200)})
	})
	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	return r
}

func TestCompressionRoundTrip(t *testing.T) {
	r := newCompressedRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	defer gz.Close()

	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(body), "contribution")
}

func TestCompressionSkippedWithoutAcceptEncoding(t *testing.T) {
	r := newCompressedRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Body.String(), "contribution")
}

func TestCompressionExcludedPath(t *testing.T) {
	r := newCompressedRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "docs", w.Body.String())
}
