package repository

import (
	"context"

	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductFilter struct {
	Category string
	Status   *model.ProductStatus
	Search   string
	Limit    int
	Offset   int
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uint) error
	FindWithFilter(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	FindIDsBySKUs(ctx context.Context, skus []string) (map[string]uint, error)
	CountSales(ctx context.Context, id uint) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"sku":      product.SKU,
		"category": product.Category,
	})

	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"sku": product.SKU,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"sku":        product.SKU,
	})
	return nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.Product{}, id).Error; err != nil {
		logger.Error("Failed to delete product from database", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}
	return nil
}

func (r *productRepository) FindWithFilter(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"category": filter.Category,
		"status":   filter.Status,
		"search":   filter.Search,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})

	query := r.db.WithContext(ctx).Model(&model.Product{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR sku LIKE ?", like, like)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []model.Product
	if err := query.Order("name ASC").Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err, map[string]interface{}{
			"search": filter.Search,
		})
		return nil, err
	}
	return products, nil
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindIDsBySKUs resolves many SKUs in one query; unknown SKUs are absent from the map.
func (r *productRepository) FindIDsBySKUs(ctx context.Context, skus []string) (map[string]uint, error) {
	result := make(map[string]uint, len(skus))
	if len(skus) == 0 {
		return result, nil
	}

	var rows []struct {
		ID  uint
		SKU string `gorm:"column:sku"`
	}
	if err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("id, sku").
		Where("sku IN ?", skus).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.SKU] = row.ID
	}
	return result, nil
}

func (r *productRepository) CountSales(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SalesRecord{}).Where("product_id = ?", id).Count(&count).Error
	return count, err
}
