package api

import (
	"net/http"
	"strings"

	"quota-service/internal/auth"
	"quota-service/internal/models"

	"github.com/gin-gonic/gin"
)

// signUp handles profile creation
func (h *Handler) signUp(c *gin.Context) {
	var req auth.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, models.WrapError(models.ErrCodeInvalid, "invalid request body", err))
		return
	}

	profile, err := h.authService.SignUp(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, profile)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// login verifies credentials and returns a session token
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, models.WrapError(models.ErrCodeInvalid, "invalid request body", err))
		return
	}

	token, profile, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"profile": profile,
	})
}

// logout revokes the current session
func (h *Handler) logout(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// me returns the signed-in profile
func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentProfile(c))
}

// updateProfile applies contact-field changes to the caller's profile
func (h *Handler) updateProfile(c *gin.Context) {
	var req auth.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, models.WrapError(models.ErrCodeInvalid, "invalid request body", err))
		return
	}

	profile, err := h.authService.UpdateProfile(c.Request.Context(), currentProfile(c), &req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
