package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keepr/keepr/internal/middleware"
	"github.com/keepr/keepr/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	token, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		middleware.AbortWithError(c, http.StatusUnauthorized,
			"INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Profile handles GET /api/auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	respond(c, http.StatusOK, middleware.CurrentUser(c))
}
