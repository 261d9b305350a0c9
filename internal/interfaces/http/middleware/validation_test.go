package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindingSample struct {
	URL  string `json:"url" binding:"required,max=10"`
	Mode string `json:"mode" binding:"omitempty,oneof=fast slow"`
}

func bindSample(t *testing.T, body string) error {
	t.Helper()
	SetupValidator()

	var bindErr error
	router := gin.New()
	router.POST("/bind", func(c *gin.Context) {
		var req bindingSample
		bindErr = c.ShouldBindJSON(&req)
		c.Status(http.StatusOK)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(body)))
	return bindErr
}

func TestBindingErrorDetails(t *testing.T) {
	t.Run("uses JSON field names", func(t *testing.T) {
		err := bindSample(t, `{"mode":"medium"}`)
		require.Error(t, err)

		details := BindingErrorDetails(err)
		assert.Equal(t, []dto.ValidationDetail{
			{Field: "url", Message: "This field is required"},
			{Field: "mode", Message: "Must be one of: fast slow"},
		}, details)
	})

	t.Run("string length", func(t *testing.T) {
		err := bindSample(t, `{"url":"https://marketplace.example/item/1"}`)
		require.Error(t, err)
		assert.Equal(t, "Must be at most 10 characters", BindingErrorDetails(err)[0].Message)
	})

	t.Run("malformed JSON has no details", func(t *testing.T) {
		err := bindSample(t, `{"url":`)
		require.Error(t, err)
		assert.Nil(t, BindingErrorDetails(err))
	})

	t.Run("other errors", func(t *testing.T) {
		assert.Nil(t, BindingErrorDetails(errors.New("boom")))
	})
}
