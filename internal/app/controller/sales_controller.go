package controller

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	"github.com/quonpass/quonpass-backend/internal/app/service"
	"github.com/quonpass/quonpass-backend/internal/errors"
	"github.com/quonpass/quonpass-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

// MaxImportFileSize bounds the multipart upload accepted by /sales/import.
const MaxImportFileSize = 20 << 20

// ImportArchiver keeps a copy of each uploaded import file.
type ImportArchiver interface {
	ArchiveImport(ctx context.Context, batchID, filename string, content []byte) (string, error)
}

type SalesController struct {
	salesService service.SalesService
	archiver     ImportArchiver
}

// NewSalesController builds the controller; archiver may be nil.
func NewSalesController(salesService service.SalesService, archiver ImportArchiver) *SalesController {
	return &SalesController{
		salesService: salesService,
		archiver:     archiver,
	}
}

type CreateSaleRequest struct {
	StoreID       *uint            `json:"store_id" binding:"required"`
	ProductID     *uint            `json:"product_id"`
	SaleDate      string           `json:"sale_date" binding:"required"`
	SalesAmount   *decimal.Decimal `json:"sales_amount" binding:"required"`
	CustomerCount int              `json:"customer_count" binding:"gte=0"`
	ItemsSold     int              `json:"items_sold" binding:"gte=0"`
	ExternalRef   string           `json:"external_ref" binding:"omitempty,max=100"`
}

// ListSales handles GET /sales?storeId=&productId=&from=&to=&batchId=
func (ctrl *SalesController) ListSales(c *gin.Context) {
	storeID, ok := optionalUintQuery(c, "storeId")
	if !ok {
		return
	}
	productID, ok := optionalUintQuery(c, "productId")
	if !ok {
		return
	}
	from, ok := optionalDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := optionalDateQuery(c, "to")
	if !ok {
		return
	}
	limit, offset := paging(c, 100, 1000)

	records, total, err := ctrl.salesService.ListSales(c.Request.Context(), repository.SalesFilter{
		StoreID:   storeID,
		ProductID: productID,
		From:      from,
		To:        to,
		BatchID:   c.Query("batchId"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		errors.Respond(c, err, "sales record")
		return
	}
	if records == nil {
		records = []model.SalesRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (ctrl *SalesController) GetSale(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	record, err := ctrl.salesService.GetSale(c.Request.Context(), id)
	if err != nil {
		errors.Respond(c, err, "sales record")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (ctrl *SalesController) CreateSale(c *gin.Context) {
	var req CreateSaleRequest
	if !bindJSON(c, &req) {
		return
	}
	date, err := parseDate(req.SaleDate)
	if err != nil {
		errors.RespondWithValidationError(c, "", map[string]string{
			"sale_date": "must be a date (YYYY-MM-DD)",
		})
		return
	}

	record, err := ctrl.salesService.CreateSale(c.Request.Context(), service.SalesRecordInput{
		StoreID:       *req.StoreID,
		ProductID:     req.ProductID,
		SaleDate:      date,
		SalesAmount:   *req.SalesAmount,
		CustomerCount: req.CustomerCount,
		ItemsSold:     req.ItemsSold,
		ExternalRef:   req.ExternalRef,
	})
	if err != nil {
		errors.Respond(c, err, "sales record")
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (ctrl *SalesController) DeleteSale(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.salesService.DeleteSale(c.Request.Context(), id); err != nil {
		errors.Respond(c, err, "sales record")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "sales record deleted"})
}

// ImportSales handles POST /sales/import (multipart field "file", CSV or XLSX).
func (ctrl *SalesController) ImportSales(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	header, err := c.FormFile("file")
	if err != nil {
		errors.BadRequest(c, errors.ValidationRequired, "multipart field \"file\" is required")
		return
	}
	if header.Size > MaxImportFileSize {
		errors.BadRequest(c, errors.SalesImportInvalid, "import file is too large")
		return
	}

	file, err := header.Open()
	if err != nil {
		errors.Respond(c, errors.Unexpected(err), "sales import")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, MaxImportFileSize))
	if err != nil {
		errors.Respond(c, errors.Unexpected(err), "sales import")
		return
	}

	result, err := ctrl.salesService.ImportSales(c.Request.Context(), bytes.NewReader(content), header.Filename)
	if err != nil {
		errors.Respond(c, err, "sales import")
		return
	}

	if ctrl.archiver != nil && result.Imported > 0 {
		if key, err := ctrl.archiver.ArchiveImport(c.Request.Context(), result.BatchID, header.Filename, content); err != nil {
			// The rows are already stored; a missing archive copy is not fatal.
			log.Error("Failed to archive import file", err, map[string]interface{}{
				"batch_id": result.BatchID,
			})
		} else {
			log.Info("Import file archived", map[string]interface{}{
				"batch_id": result.BatchID,
				"key":      key,
			})
		}
	}

	userID, _ := middleware.GetUserID(c)
	log.Info("Sales import finished", map[string]interface{}{
		"batch_id": result.BatchID,
		"imported": result.Imported,
		"failed":   result.Failed,
		"user_id":  userID,
	})
	c.JSON(http.StatusOK, result)
}
