package repository

import (
	"context"
	"time"

	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SalesFilter struct {
	StoreID   *uint
	ProductID *uint
	From      *time.Time
	To        *time.Time
	BatchID   string
	Limit     int
	Offset    int
}

// SalesTotals aggregates sales records over a date range.
type SalesTotals struct {
	SalesAmount   decimal.Decimal `json:"sales_amount"`
	CustomerCount int64           `json:"customer_count"`
	ItemsSold     int64           `json:"items_sold"`
}

type SalesRepository interface {
	Create(ctx context.Context, record *model.SalesRecord) error
	CreateBatch(ctx context.Context, records []model.SalesRecord, batchSize int) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.SalesRecord, error)
	FindWithFilter(ctx context.Context, filter SalesFilter) ([]model.SalesRecord, int64, error)
	Totals(ctx context.Context, storeID uint, from, to time.Time) (SalesTotals, error)
}

type salesRepository struct {
	db *gorm.DB
}

func NewSalesRepository(db *gorm.DB) SalesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) Create(ctx context.Context, record *model.SalesRecord) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(record).Error; err != nil {
		logger.Error("Failed to create sales record", err, map[string]interface{}{
			"store_id":  record.StoreID,
			"sale_date": record.SaleDate.Format("2006-01-02"),
		})
		return err
	}
	return nil
}

// CreateBatch inserts records in chunks of batchSize inside one transaction.
func (r *salesRepository) CreateBatch(ctx context.Context, records []model.SalesRecord, batchSize int) error {
	if len(records) == 0 {
		return nil
	}

	logger.Debug("Inserting sales records", map[string]interface{}{
		"count":      len(records),
		"batch_size": batchSize,
	})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).CreateInBatches(&records, batchSize).Error
	})
	if err != nil {
		logger.Error("Failed to insert sales records", err, map[string]interface{}{
			"count": len(records),
		})
		return err
	}
	return nil
}

func (r *salesRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.SalesRecord{}, id)
	if res.Error != nil {
		logger.Error("Failed to delete sales record", res.Error, map[string]interface{}{
			"sales_record_id": id,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *salesRepository) FindByID(ctx context.Context, id uint) (*model.SalesRecord, error) {
	var record model.SalesRecord
	if err := r.db.WithContext(ctx).Preload("Store").Preload("Product").First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *salesRepository) FindWithFilter(ctx context.Context, filter SalesFilter) ([]model.SalesRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.SalesRecord{})
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.From != nil {
		query = query.Where("sale_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("sale_date <= ?", *filter.To)
	}
	if filter.BatchID != "" {
		query = query.Where("import_batch_id = ?", filter.BatchID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count sales records", err)
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var records []model.SalesRecord
	if err := query.Preload("Product").Order("sale_date DESC").Order("id DESC").Find(&records).Error; err != nil {
		logger.Error("Failed to find sales records", err)
		return nil, 0, err
	}
	return records, total, nil
}

func (r *salesRepository) Totals(ctx context.Context, storeID uint, from, to time.Time) (SalesTotals, error) {
	var totals SalesTotals
	err := r.db.WithContext(ctx).Model(&model.SalesRecord{}).
		Select("COALESCE(SUM(sales_amount), 0) AS sales_amount, "+
			"COALESCE(SUM(customer_count), 0) AS customer_count, "+
			"COALESCE(SUM(items_sold), 0) AS items_sold").
		Where("store_id = ? AND sale_date >= ? AND sale_date <= ?", storeID, from, to).
		Scan(&totals).Error
	if err != nil {
		logger.Error("Failed to total sales records", err, map[string]interface{}{
			"store_id": storeID,
		})
		return SalesTotals{}, err
	}
	totals.SalesAmount = totals.SalesAmount.Round(2)
	return totals, nil
}
