package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	t.Run("allows request within limit", func(t *testing.T) {
		router := newTestRouter(BodyLimit(1024))

		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"url":"x"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects declared oversized body", func(t *testing.T) {
		router := newTestRouter(BodyLimit(100))

		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("x", 200)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeRequestTooLarge)
	})

	t.Run("cuts off streamed body", func(t *testing.T) {
		router := gin.New()
		router.Use(BodyLimit(50))
		router.POST("/test", func(c *gin.Context) {
			if _, err := io.ReadAll(c.Request.Body); err != nil {
				c.String(http.StatusBadRequest, "body too large")
				return
			}
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("x", 100)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
