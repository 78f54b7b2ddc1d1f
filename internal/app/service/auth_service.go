package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	"github.com/quonpass/quonpass-backend/pkg/logger"
	"github.com/quonpass/quonpass-backend/pkg/util"
	"gorm.io/gorm"
)

// TokenRevoker keeps revoked token ids until they would have expired anyway.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type TokenConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	Me(ctx context.Context, userID uint) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	revoker  TokenRevoker
	tokens   TokenConfig
	now      func() time.Time
}

// NewAuthService wires authentication; revoker may be nil when Redis is disabled,
// in which case logout only discards tokens client-side.
func NewAuthService(userRepo repository.UserRepository, revoker TokenRevoker, tokens TokenConfig) AuthService {
	return &authService{
		userRepo: userRepo,
		revoker:  revoker,
		tokens:   tokens,
		now:      time.Now,
	}
}

func (s *authService) issue(user *model.User) (*util.TokenPair, error) {
	return util.GenerateTokenPair(user.ID, user.Email, string(user.Role), s.tokens.Secret, s.tokens.AccessExpiry, s.tokens.RefreshExpiry)
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	logger.Debug("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: unknown email", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: wrong password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		logger.Warn("Login refused for inactive user", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrUserInactive
	}

	tokens, err := s.issue(user)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, err
	}

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.Warn("Failed to record last login", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	} else {
		user.LastLoginAt = &now
	}

	logger.Info("User logged in", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, tokens, nil
}

func (s *authService) parse(ctx context.Context, token string, want util.TokenType) (*util.Claims, error) {
	claims, err := util.ValidateToken(token, s.tokens.Secret)
	if err != nil {
		if errors.Is(err, util.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if claims.TokenType != want {
		return nil, ErrInvalidToken
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}
	return claims, nil
}

// Refresh rotates the token pair; the presented refresh token is revoked.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := s.parse(ctx, refreshToken, util.RefreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if s.revoker != nil {
		if err := s.revoker.Revoke(ctx, claims.ID, claims.Remaining()); err != nil {
			return nil, err
		}
	}

	logger.Info("Tokens refreshed", map[string]interface{}{
		"user_id": user.ID,
	})
	return tokens, nil
}

func (s *authService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if s.revoker == nil {
		logger.Warn("Logout without token blacklist; tokens stay valid until expiry")
		return nil
	}

	for _, token := range []string{accessToken, refreshToken} {
		if token == "" {
			continue
		}
		claims, err := util.ValidateToken(token, s.tokens.Secret)
		if err != nil {
			// Expired or foreign tokens need no revocation.
			continue
		}
		if err := s.revoker.Revoke(ctx, claims.ID, claims.Remaining()); err != nil {
			return err
		}
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}
