package service

import (
	"context"
	"errors"
	"strings"

	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	apperrors "github.com/quonpass/quonpass-backend/internal/errors"
	"github.com/quonpass/quonpass-backend/pkg/logger"
	"github.com/quonpass/quonpass-backend/pkg/util"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidProductStatus = apperrors.Validation(apperrors.ValidationInvalidInput, "status must be active or discontinued")
	ErrNegativePrice        = apperrors.Validation(apperrors.ValidationInvalidRange, "unit_price must not be negative")
)

type ProductInput struct {
	SKU         string
	Name        string
	Category    string
	UnitPrice   decimal.Decimal
	Status      model.ProductStatus
	Description string
	ImageURL    string
}

type ProductMutation struct {
	SKU         *string
	Name        *string
	Category    *string
	UnitPrice   *decimal.Decimal
	Status      *model.ProductStatus
	Description *string
	ImageURL    *string
}

type ProductService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, input ProductMutation) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func normalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

func (s *productService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrInvalidProductStatus
	}

	products, err := s.productRepo.FindWithFilter(ctx, filter)
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, err
	}
	logger.Debug("Products fetched", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error) {
	if input.Status == "" {
		input.Status = model.ProductStatusActive
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidProductStatus
	}
	if input.UnitPrice.IsNegative() {
		return nil, ErrNegativePrice
	}

	product := &model.Product{
		SKU:         normalizeSKU(input.SKU),
		Name:        util.StripTags(input.Name),
		Category:    strings.TrimSpace(input.Category),
		UnitPrice:   input.UnitPrice.Round(2),
		Status:      input.Status,
		Description: util.SanitizeDescription(input.Description),
		ImageURL:    strings.TrimSpace(input.ImageURL),
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"sku":        product.SKU,
	})
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uint, input ProductMutation) (*model.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.SKU != nil {
		product.SKU = normalizeSKU(*input.SKU)
	}
	if input.Name != nil {
		product.Name = util.StripTags(*input.Name)
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.UnitPrice != nil {
		if input.UnitPrice.IsNegative() {
			return nil, ErrNegativePrice
		}
		product.UnitPrice = input.UnitPrice.Round(2)
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidProductStatus
		}
		product.Status = *input.Status
	}
	if input.Description != nil {
		product.Description = util.SanitizeDescription(*input.Description)
	}
	if input.ImageURL != nil {
		product.ImageURL = strings.TrimSpace(*input.ImageURL)
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uint) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}

	sales, err := s.productRepo.CountSales(ctx, id)
	if err != nil {
		return err
	}
	if sales > 0 {
		return ErrProductInUse
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return nil
}
