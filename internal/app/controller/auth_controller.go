package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quonpass/quonpass-backend/internal/app/service"
	"github.com/quonpass/quonpass-backend/internal/errors"
	"github.com/quonpass/quonpass-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login handles user login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := ctrl.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		errors.Respond(c, err, "user")
		return
	}

	log.Info("User logged in", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// RefreshToken rotates the token pair
// POST /api/v1/auth/refresh
func (ctrl *AuthController) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, err := ctrl.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		errors.Respond(c, err, "token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Token refreshed successfully",
		"tokens":  tokens,
	})
}

// Logout revokes the presented access token and, when sent, the refresh token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LogoutRequest
	// Body is optional.
	_ = c.ShouldBindJSON(&req)

	accessToken, _ := middleware.BearerToken(c)
	if err := ctrl.authService.Logout(c.Request.Context(), accessToken, req.RefreshToken); err != nil {
		// Logout always succeeds from the client's point of view.
		log.Error("Failed to revoke tokens during logout", err)
	}

	userID, _ := middleware.GetUserID(c)
	log.Info("User logged out", map[string]interface{}{
		"user_id": userID,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetMe returns the authenticated user
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.RespondUnauthorized(c, "")
		return
	}

	user, err := ctrl.authService.Me(c.Request.Context(), userID)
	if err != nil {
		errors.Respond(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}
