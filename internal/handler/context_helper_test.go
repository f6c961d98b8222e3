package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/rentflow-api/internal/dto"
)

func reviewContext(body string, contentLength int64) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/lease-requests/r1/approve", nil)
	req.Body = io.NopCloser(strings.NewReader(body))
	req.ContentLength = contentLength
	req.TransferEncoding = []string{"chunked"}
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestBindOptionalJSONAcceptsEmptyChunkedBody(t *testing.T) {
	c, w := reviewContext("", -1)
	var review dto.ReviewRequest
	assert.True(t, bindOptionalJSON(c, &review, "invalid review payload"))
	assert.Empty(t, review.Note)
	assert.False(t, c.Writer.Written())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBindOptionalJSONDecodesChunkedBody(t *testing.T) {
	c, _ := reviewContext(`{"note":"ok"}`, -1)
	var review dto.ReviewRequest
	assert.True(t, bindOptionalJSON(c, &review, "invalid review payload"))
	assert.Equal(t, "ok", review.Note)
}

func TestBindOptionalJSONRejectsMalformedBody(t *testing.T) {
	c, w := reviewContext(`{"note":`, -1)
	var review dto.ReviewRequest
	assert.False(t, bindOptionalJSON(c, &review, "invalid review payload"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
