package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	"github.com/quonpass/quonpass-backend/internal/app/service"
	"github.com/quonpass/quonpass-backend/internal/errors"
	"github.com/quonpass/quonpass-backend/internal/middleware"
	"github.com/quonpass/quonpass-backend/internal/storage"
	"github.com/shopspring/decimal"
)

// UploadPresigner issues direct-to-bucket upload URLs.
type UploadPresigner interface {
	PresignUpload(ctx context.Context, folder, filename, contentType string) (*storage.PresignedURLResponse, error)
}

type ProductController struct {
	productService service.ProductService
	presigner      UploadPresigner
}

// NewProductController builds the controller; presigner may be nil when S3 is not configured.
func NewProductController(productService service.ProductService, presigner UploadPresigner) *ProductController {
	return &ProductController{
		productService: productService,
		presigner:      presigner,
	}
}

type CreateProductRequest struct {
	SKU         string           `json:"sku" binding:"required,max=64"`
	Name        string           `json:"name" binding:"required,max=255"`
	Category    string           `json:"category" binding:"omitempty,max=50"`
	UnitPrice   *decimal.Decimal `json:"unit_price" binding:"required"`
	Status      string           `json:"status" binding:"omitempty,oneof=active discontinued"`
	Description string           `json:"description"`
	ImageURL    string           `json:"image_url" binding:"omitempty,url"`
}

type UpdateProductRequest struct {
	SKU         *string          `json:"sku" binding:"omitempty,min=1,max=64"`
	Name        *string          `json:"name" binding:"omitempty,min=1,max=255"`
	Category    *string          `json:"category" binding:"omitempty,max=50"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	Status      *string          `json:"status" binding:"omitempty,oneof=active discontinued"`
	Description *string          `json:"description"`
	ImageURL    *string          `json:"image_url" binding:"omitempty,url"`
}

type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

func (ctrl *ProductController) ListProducts(c *gin.Context) {
	limit, offset := paging(c, 100, 500)
	filter := repository.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Limit:    limit,
		Offset:   offset,
	}
	if status := c.Query("status"); status != "" {
		s := model.ProductStatus(status)
		filter.Status = &s
	}

	products, err := ctrl.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		errors.Respond(c, err, "product")
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	c.JSON(http.StatusOK, products)
}

func (ctrl *ProductController) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		errors.Respond(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.productService.CreateProduct(c.Request.Context(), service.ProductInput{
		SKU:         req.SKU,
		Name:        req.Name,
		Category:    req.Category,
		UnitPrice:   *req.UnitPrice,
		Status:      model.ProductStatus(req.Status),
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		errors.Respond(c, err, "product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	mutation := service.ProductMutation{
		SKU:         req.SKU,
		Name:        req.Name,
		Category:    req.Category,
		UnitPrice:   req.UnitPrice,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if req.Status != nil {
		s := model.ProductStatus(*req.Status)
		mutation.Status = &s
	}

	product, err := ctrl.productService.UpdateProduct(c.Request.Context(), id, mutation)
	if err != nil {
		errors.Respond(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		errors.Respond(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// CreateUploadURL handles POST /products/upload-url
func (ctrl *ProductController) CreateUploadURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if ctrl.presigner == nil {
		errors.RespondWithError(c, http.StatusServiceUnavailable, errors.UploadFailed, "image uploads are not configured")
		return
	}

	var req UploadURLRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := storage.ValidateContentType(req.ContentType, storage.ImageContentTypes); err != nil {
		log.Warn("Invalid content type", map[string]interface{}{
			"content_type": req.ContentType,
		})
		errors.BadRequest(c, errors.UploadInvalidFileType, "only image files are allowed (JPEG, PNG, GIF, WEBP)")
		return
	}

	resp, err := ctrl.presigner.PresignUpload(c.Request.Context(), storage.ProductImageFolder, req.Filename, req.ContentType)
	if err != nil {
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"filename": req.Filename,
		})
		errors.RespondWithError(c, http.StatusInternalServerError, errors.UploadFailed, "failed to generate upload URL")
		return
	}

	log.Info("Presigned URL generated", map[string]interface{}{
		"key": resp.Key,
	})
	c.JSON(http.StatusOK, resp)
}
