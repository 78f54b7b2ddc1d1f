package repository

import (
	"context"

	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/pkg/logger"
	"gorm.io/gorm"
)

type StoreFilter struct {
	Status *model.StoreStatus
	Search string
}

// StoreUsage counts the rows that keep a store from being deleted.
type StoreUsage struct {
	AnnualTargets int64
	SalesRecords  int64
	Users         int64
}

func (u StoreUsage) InUse() bool {
	return u.AnnualTargets > 0 || u.SalesRecords > 0
}

type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	BulkCreate(ctx context.Context, stores []model.Store, batchSize int) error
	Update(ctx context.Context, store *model.Store) error
	Delete(ctx context.Context, id uint) error
	FindAll(ctx context.Context, filter StoreFilter) ([]model.Store, error)
	FindByID(ctx context.Context, id uint) (*model.Store, error)
	FindByCode(ctx context.Context, code string) (*model.Store, error)
	ExistingIDs(ctx context.Context, ids []uint) (map[uint]bool, error)
	Usage(ctx context.Context, id uint) (StoreUsage, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) Create(ctx context.Context, store *model.Store) error {
	logger.Debug("Creating store in database", map[string]interface{}{
		"name": store.Name,
		"code": store.Code,
	})

	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		logger.Error("Failed to create store in database", err, map[string]interface{}{
			"name": store.Name,
			"code": store.Code,
		})
		return err
	}

	logger.Debug("Store created in database", map[string]interface{}{
		"store_id": store.ID,
		"code":     store.Code,
	})
	return nil
}

func (r *storeRepository) BulkCreate(ctx context.Context, stores []model.Store, batchSize int) error {
	logger.Info("Bulk creating stores", map[string]interface{}{
		"count":      len(stores),
		"batch_size": batchSize,
	})

	if err := r.db.WithContext(ctx).CreateInBatches(stores, batchSize).Error; err != nil {
		logger.Error("Failed to bulk create stores", err, map[string]interface{}{
			"count": len(stores),
		})
		return err
	}
	return nil
}

func (r *storeRepository) Update(ctx context.Context, store *model.Store) error {
	logger.Debug("Updating store in database", map[string]interface{}{
		"store_id": store.ID,
		"status":   store.Status,
	})

	if err := r.db.WithContext(ctx).Save(store).Error; err != nil {
		logger.Error("Failed to update store in database", err, map[string]interface{}{
			"store_id": store.ID,
		})
		return err
	}
	return nil
}

func (r *storeRepository) Delete(ctx context.Context, id uint) error {
	logger.Debug("Deleting store from database", map[string]interface{}{
		"store_id": id,
	})

	if err := r.db.WithContext(ctx).Delete(&model.Store{}, id).Error; err != nil {
		logger.Error("Failed to delete store from database", err, map[string]interface{}{
			"store_id": id,
		})
		return err
	}
	return nil
}

func (r *storeRepository) FindAll(ctx context.Context, filter StoreFilter) ([]model.Store, error) {
	query := r.db.WithContext(ctx).Model(&model.Store{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR code LIKE ?", like, like)
	}

	var stores []model.Store
	if err := query.Order("name ASC").Find(&stores).Error; err != nil {
		logger.Error("Failed to find stores", err, map[string]interface{}{
			"search": filter.Search,
		})
		return nil, err
	}

	logger.Debug("Stores found", map[string]interface{}{
		"count": len(stores),
	})
	return stores, nil
}

func (r *storeRepository) FindByID(ctx context.Context, id uint) (*model.Store, error) {
	var store model.Store
	if err := r.db.WithContext(ctx).First(&store, id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) FindByCode(ctx context.Context, code string) (*model.Store, error) {
	var store model.Store
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// ExistingIDs reports which of ids are present in the stores table.
func (r *storeRepository) ExistingIDs(ctx context.Context, ids []uint) (map[uint]bool, error) {
	found := make(map[uint]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var existing []uint
	if err := r.db.WithContext(ctx).Model(&model.Store{}).
		Where("id IN ?", ids).
		Pluck("id", &existing).Error; err != nil {
		logger.Error("Failed to look up store ids", err, map[string]interface{}{
			"count": len(ids),
		})
		return nil, err
	}
	for _, id := range existing {
		found[id] = true
	}
	return found, nil
}

func (r *storeRepository) Usage(ctx context.Context, id uint) (StoreUsage, error) {
	var usage StoreUsage
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.AnnualTarget{}).Where("store_id = ?", id).Count(&usage.AnnualTargets).Error; err != nil {
		return usage, err
	}
	if err := db.Model(&model.SalesRecord{}).Where("store_id = ?", id).Count(&usage.SalesRecords).Error; err != nil {
		return usage, err
	}
	if err := db.Model(&model.User{}).Where("store_id = ?", id).Count(&usage.Users).Error; err != nil {
		return usage, err
	}
	return usage, nil
}
