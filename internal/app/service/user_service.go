package service

import (
	"context"
	"errors"
	"strings"

	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	"github.com/quonpass/quonpass-backend/pkg/logger"
	"github.com/quonpass/quonpass-backend/pkg/util"
	"gorm.io/gorm"
)

type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Role     model.UserRole
	StoreID  *uint
}

type UpdateUserInput struct {
	Name       *string
	Role       *model.UserRole
	StoreID    *uint
	ClearStore bool
	IsActive   *bool
	Password   *string
}

type UserService interface {
	ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*model.User, error)
	UpdateUser(ctx context.Context, id uint, input UpdateUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, actorID, id uint) error
	EnsureAdmin(ctx context.Context, email, password, name string) (bool, error)
}

type userService struct {
	userRepo  repository.UserRepository
	storeRepo repository.StoreRepository
}

func NewUserService(userRepo repository.UserRepository, storeRepo repository.StoreRepository) UserService {
	return &userService{
		userRepo:  userRepo,
		storeRepo: storeRepo,
	}
}

func (s *userService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, ErrInvalidRole
	}
	return s.userRepo.FindAll(ctx, filter)
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *userService) checkStore(ctx context.Context, storeID *uint) error {
	if storeID == nil {
		return nil
	}
	if _, err := s.storeRepo.FindByID(ctx, *storeID); err != nil {
		return notFound(err, ErrStoreNotFound)
	}
	return nil
}

func (s *userService) CreateUser(ctx context.Context, input CreateUserInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if input.Role == "" {
		input.Role = model.RoleStaff
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := util.ValidatePasswordStrength(input.Password); err != nil {
		return nil, ErrWeakPassword
	}
	if err := s.checkStore(ctx, input.StoreID); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         util.StripTags(input.Name),
		Role:         input.Role,
		StoreID:      input.StoreID,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("User created", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return s.GetUser(ctx, user.ID)
}

func (s *userService) UpdateUser(ctx context.Context, id uint, input UpdateUserInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	if input.Name != nil {
		user.Name = util.StripTags(*input.Name)
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}
	if input.ClearStore {
		user.StoreID = nil
	} else if input.StoreID != nil {
		if err := s.checkStore(ctx, input.StoreID); err != nil {
			return nil, err
		}
		user.StoreID = input.StoreID
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Password != nil {
		if err := util.ValidatePasswordStrength(*input.Password); err != nil {
			return nil, ErrWeakPassword
		}
		hash, err := util.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	user.Store = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("User updated", map[string]interface{}{
		"user_id":   user.ID,
		"role":      user.Role,
		"is_active": user.IsActive,
	})
	return s.GetUser(ctx, id)
}

func (s *userService) DeleteUser(ctx context.Context, actorID, id uint) error {
	if actorID == id {
		return ErrSelfDeletion
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	logger.Info("User deleted", map[string]interface{}{
		"user_id":  id,
		"actor_id": actorID,
	})
	return nil
}

// EnsureAdmin creates the bootstrap administrator when the users table is empty.
// It reports whether an account was created.
func (s *userService) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if _, err := s.CreateUser(ctx, CreateUserInput{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     model.RoleAdmin,
	}); err != nil {
		return false, err
	}
	logger.Info("Bootstrap administrator created", map[string]interface{}{
		"email": strings.ToLower(email),
	})
	return true, nil
}
