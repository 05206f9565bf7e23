package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quota-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err      error
		expected int
	}{
		{models.ErrQuotaNotFound, http.StatusNotFound},
		{models.ErrQuotaNotOpen, http.StatusConflict},
		{models.ErrDuplicateRequest, http.StatusConflict},
		{models.ErrNotQuotaOwner, http.StatusForbidden},
		{models.ErrNotParticipant, http.StatusForbidden},
		{models.ErrUnauthorized, http.StatusUnauthorized},
		{models.NewError(models.ErrCodeInvalid, "bad input"), http.StatusBadRequest},
		{errors.New("database exploded"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, statusOf(tc.err), "error: %v", tc.err)
	}
}

func TestErrorBodyCarriesCode(t *testing.T) {
	body := errorBody(models.ErrQuotaFull)
	assert.Equal(t, "CONFLICT", body["code"])
	assert.Equal(t, "quota has no remaining capacity", body["error"])
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	h := &Handler{}
	router.GET("/health", h.healthCheck)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	h := &Handler{}
	router.GET("/protected", h.authRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}
