package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	echo := func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "read past %d bytes", tooLarge.Limit)
			return
		}
		c.String(http.StatusOK, "%d", len(body))
	}

	tests := []struct {
		name       string
		method     string
		body       string
		declared   bool
		wantStatus int
		wantBody   string
	}{
		{"within the limit", http.MethodPost, "material,quantity", true, http.StatusOK, "17"},
		{"declared length over the limit", http.MethodPost, strings.Repeat("x", 200), true, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE"},
		{"streamed body over the limit", http.MethodPost, strings.Repeat("x", 200), false, http.StatusRequestEntityTooLarge, "read past 64 bytes"},
		{"no body", http.MethodGet, "", true, http.StatusOK, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(BodyLimit(64))
			router.Handle(tt.method, "/purchases/import", echo)

			req := httptest.NewRequest(tt.method, "/purchases/import", strings.NewReader(tt.body))
			if !tt.declared {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
