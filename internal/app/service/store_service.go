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

type StoreInput struct {
	Code        string
	Name        string
	Address     string
	Phone       string
	Email       string
	ContactName string
	Status      model.StoreStatus
	Description string
}

// StoreMutation holds the fields of a partial update; nil leaves a field unchanged.
type StoreMutation struct {
	Code        *string
	Name        *string
	Address     *string
	Phone       *string
	Email       *string
	ContactName *string
	Description *string
}

type StoreService interface {
	ListStores(ctx context.Context, filter repository.StoreFilter) ([]model.Store, error)
	GetStore(ctx context.Context, id uint) (*model.Store, error)
	CreateStore(ctx context.Context, input StoreInput) (*model.Store, error)
	UpdateStore(ctx context.Context, id uint, input StoreMutation) (*model.Store, error)
	ChangeStatus(ctx context.Context, id uint, status model.StoreStatus) (*model.Store, error)
	DeleteStore(ctx context.Context, id uint) error
	ActiveStoreIDs(ctx context.Context) ([]uint, error)
}

type storeService struct {
	storeRepo repository.StoreRepository
}

func NewStoreService(storeRepo repository.StoreRepository) StoreService {
	return &storeService{storeRepo: storeRepo}
}

func (s *storeService) ListStores(ctx context.Context, filter repository.StoreFilter) ([]model.Store, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	stores, err := s.storeRepo.FindAll(ctx, filter)
	if err != nil {
		logger.Error("Failed to list stores", err)
		return nil, err
	}

	logger.Info("Stores fetched", map[string]interface{}{
		"count":  len(stores),
		"search": filter.Search,
	})
	return stores, nil
}

func (s *storeService) GetStore(ctx context.Context, id uint) (*model.Store, error) {
	store, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Store not found", map[string]interface{}{
				"store_id": id,
			})
			return nil, ErrStoreNotFound
		}
		logger.Error("Failed to fetch store", err, map[string]interface{}{
			"store_id": id,
		})
		return nil, err
	}
	return store, nil
}

func (s *storeService) CreateStore(ctx context.Context, input StoreInput) (*model.Store, error) {
	if input.Status == "" {
		input.Status = model.StoreStatusActive
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	store := &model.Store{
		Code:        strings.TrimSpace(input.Code),
		Name:        util.StripTags(input.Name),
		Address:     strings.TrimSpace(input.Address),
		Phone:       strings.TrimSpace(input.Phone),
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		ContactName: util.StripTags(input.ContactName),
		Status:      input.Status,
		Description: util.SanitizeDescription(input.Description),
	}
	if err := s.storeRepo.Create(ctx, store); err != nil {
		return nil, err
	}

	logger.Info("Store created", map[string]interface{}{
		"store_id": store.ID,
		"code":     store.Code,
	})
	return store, nil
}

func (s *storeService) UpdateStore(ctx context.Context, id uint, input StoreMutation) (*model.Store, error) {
	store, err := s.GetStore(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Code != nil {
		store.Code = strings.ToUpper(strings.TrimSpace(*input.Code))
	}
	if input.Name != nil {
		store.Name = util.StripTags(*input.Name)
	}
	if input.Address != nil {
		store.Address = strings.TrimSpace(*input.Address)
	}
	if input.Phone != nil {
		store.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Email != nil {
		store.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.ContactName != nil {
		store.ContactName = util.StripTags(*input.ContactName)
	}
	if input.Description != nil {
		store.Description = util.SanitizeDescription(*input.Description)
	}

	if err := s.storeRepo.Update(ctx, store); err != nil {
		return nil, err
	}

	logger.Info("Store updated", map[string]interface{}{
		"store_id": store.ID,
	})
	return store, nil
}

func (s *storeService) ChangeStatus(ctx context.Context, id uint, status model.StoreStatus) (*model.Store, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	store, err := s.GetStore(ctx, id)
	if err != nil {
		return nil, err
	}
	if store.Status == status {
		return store, nil
	}

	previous := store.Status
	store.Status = status
	if err := s.storeRepo.Update(ctx, store); err != nil {
		return nil, err
	}

	logger.Info("Store status changed", map[string]interface{}{
		"store_id": id,
		"from":     previous,
		"to":       status,
	})
	return store, nil
}

func (s *storeService) DeleteStore(ctx context.Context, id uint) error {
	if _, err := s.GetStore(ctx, id); err != nil {
		return err
	}

	usage, err := s.storeRepo.Usage(ctx, id)
	if err != nil {
		return err
	}
	if usage.InUse() {
		logger.Warn("Refusing to delete store in use", map[string]interface{}{
			"store_id":       id,
			"annual_targets": usage.AnnualTargets,
			"sales_records":  usage.SalesRecords,
		})
		return ErrStoreInUse
	}

	if err := s.storeRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("Store deleted", map[string]interface{}{
		"store_id": id,
	})
	return nil
}

func (s *storeService) ActiveStoreIDs(ctx context.Context) ([]uint, error) {
	active := model.StoreStatusActive
	stores, err := s.storeRepo.FindAll(ctx, repository.StoreFilter{Status: &active})
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(stores))
	for _, store := range stores {
		ids = append(ids, store.ID)
	}
	return ids, nil
}
