package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/middleware/mocks"
	"github.com/quonpass/quonpass-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

func setupMiddlewareTest(blacklist TokenBlacklist) (*gin.Engine, *AuthMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	middleware := NewAuthMiddleware(testJWTSecret, blacklist)
	return router, middleware
}

func generateTestTokens(t *testing.T, userID uint, email, role string) *util.TokenPair {
	tokens, err := util.GenerateTokenPair(
		userID,
		email,
		role,
		testJWTSecret,
		15*time.Minute,
		7*24*time.Hour,
	)
	require.NoError(t, err)
	return tokens
}

func generateTestToken(t *testing.T, userID uint, email, role string) string {
	return generateTestTokens(t, userID, email, role).AccessToken
}

func serve(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)

	token := generateTestToken(t, 1, "manager@example.com", "manager")

	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		email, _ := GetUserEmail(c)
		role, _ := GetUserRole(c)

		c.JSON(http.StatusOK, gin.H{
			"user_id": userID,
			"email":   email,
			"role":    role,
		})
	})

	w := serve(router, "/test", "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"manager"`)
	assert.Contains(t, w.Body.String(), `"email":"manager@example.com"`)
}

func TestAuthMiddleware_Authenticate_NoToken(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)

	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	w := serve(router, "/test", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization header is required")
}

func TestAuthMiddleware_Authenticate_InvalidFormat(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)

	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	tests := []struct {
		name   string
		header string
	}{
		{
			name:   "Missing Bearer prefix",
			header: "invalid-token",
		},
		{
			name:   "Wrong prefix",
			header: "Basic token123",
		},
		{
			name:   "Empty token",
			header: "Bearer ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, "/test", tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddleware_Authenticate_InvalidToken(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)

	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	w := serve(router, "/test", "Bearer invalid.jwt.token")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_TOKEN_INVALID")
}

func TestAuthMiddleware_Authenticate_RejectsRefreshToken(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)

	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	tokens := generateTestTokens(t, 1, "staff@example.com", "staff")
	w := serve(router, "/test", "Bearer "+tokens.RefreshToken)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_Authenticate_Blacklist(t *testing.T) {
	token := generateTestToken(t, 7, "staff@example.com", "staff")
	claims, err := util.ValidateToken(token, testJWTSecret)
	require.NoError(t, err)

	tests := []struct {
		name           string
		revoked        bool
		lookupErr      error
		expectedStatus int
	}{
		{
			name:           "Active token passes",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Revoked token is rejected",
			revoked:        true,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Lookup failure lets the request through",
			lookupErr:      errors.New("connection refused"),
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			blacklist := mocks.NewMockTokenBlacklist(ctrl)
			blacklist.EXPECT().
				IsRevoked(gomock.Any(), claims.ID).
				Return(tt.revoked, tt.lookupErr)

			router, authMiddleware := setupMiddlewareTest(blacklist)
			router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
				tokenID, _ := c.Get(TokenIDKey)
				c.JSON(http.StatusOK, gin.H{"token_id": tokenID})
			})

			w := serve(router, "/test", "Bearer "+token)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.revoked {
				assert.Contains(t, w.Body.String(), "AUTH_TOKEN_REVOKED")
			} else {
				assert.Contains(t, w.Body.String(), claims.ID)
			}
		})
	}
}

func TestAuthMiddleware_Authenticate_SkipsBlacklistForBadTokens(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No EXPECT: the blacklist must not be consulted for unverifiable tokens.
	blacklist := mocks.NewMockTokenBlacklist(ctrl)

	router, authMiddleware := setupMiddlewareTest(blacklist)
	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(router, "/test", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_RequireRole_Success(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)

	token := generateTestToken(t, 1, "admin@example.com", "admin")

	router.GET("/admin",
		authMiddleware.Authenticate(),
		authMiddleware.RequireRole(model.RoleAdmin),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "admin access granted"})
		},
	)

	w := serve(router, "/admin", "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_RequireRole_Forbidden(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)

	token := generateTestToken(t, 1, "staff@example.com", "staff")

	router.GET("/admin",
		authMiddleware.Authenticate(),
		authMiddleware.RequireRole(model.RoleAdmin),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "admin access granted"})
		},
	)

	w := serve(router, "/admin", "Bearer "+token)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "AUTHZ_FORBIDDEN")
}

func TestAuthMiddleware_RequireRole_MultipleRoles(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)

	router.POST("/targets",
		authMiddleware.Authenticate(),
		authMiddleware.RequireRole(model.RoleAdmin, model.RoleManager),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "access granted"})
		},
	)

	tests := []struct {
		name           string
		role           string
		expectedStatus int
	}{
		{
			name:           "Admin role",
			role:           "admin",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Manager role",
			role:           "manager",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Staff role",
			role:           "staff",
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := generateTestToken(t, 1, "test@example.com", tt.role)

			req := httptest.NewRequest(http.MethodPost, "/targets", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAuthMiddleware_RequireRole_WithoutAuthenticate(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)

	router.GET("/admin", authMiddleware.RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(router, "/admin", "")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "AUTHZ_ROLE_NOT_FOUND")
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	userID, exists := GetUserID(c)
	assert.False(t, exists)
	assert.Equal(t, uint(0), userID)

	c.Set(UserIDKey, uint(123))
	userID, exists = GetUserID(c)
	assert.True(t, exists)
	assert.Equal(t, uint(123), userID)
}

func TestGetUserRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	role, exists := GetUserRole(c)
	assert.False(t, exists)
	assert.Empty(t, role)

	c.Set(UserRoleKey, model.RoleManager)
	role, exists = GetUserRole(c)
	assert.True(t, exists)
	assert.Equal(t, model.RoleManager, role)
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		assert.NotNil(t, GetLoggerFromContext(c))
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := serve(router, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "lb-1234")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "lb-1234", w.Header().Get(RequestIDHeader))
}
