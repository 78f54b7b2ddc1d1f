package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesRecord is one day's takings for a store, optionally narrowed to a product.
type SalesRecord struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	StoreID       uint            `gorm:"not null;index:idx_sales_records_store_date,priority:1" json:"store_id"`
	Store         *Store          `gorm:"foreignKey:StoreID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"store,omitempty"`
	ProductID     *uint           `gorm:"index" json:"product_id,omitempty"`
	Product       *Product        `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"product,omitempty"`
	SaleDate      time.Time       `gorm:"type:date;not null;index:idx_sales_records_store_date,priority:2" json:"sale_date"`
	SalesAmount   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"sales_amount"`
	CustomerCount int             `gorm:"not null;default:0" json:"customer_count"`
	ItemsSold     int             `gorm:"not null;default:0" json:"items_sold"`
	ImportBatchID string          `gorm:"type:varchar(36);index" json:"import_batch_id,omitempty"`
	ExternalRef   string          `gorm:"type:varchar(100)" json:"external_ref,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (SalesRecord) TableName() string {
	return "sales_records"
}
