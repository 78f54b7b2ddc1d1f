package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

func (s ProductStatus) Valid() bool {
	return s == ProductStatusActive || s == ProductStatusDiscontinued
}

type Product struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	SKU         string          `gorm:"column:sku;size:64;uniqueIndex;not null" json:"sku"`
	Name        string          `gorm:"not null" json:"name"`
	Category    string          `gorm:"type:varchar(50);index" json:"category"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"unit_price"`
	Status      ProductStatus   `gorm:"type:varchar(20);default:'active';index;not null" json:"status"`
	Description string          `gorm:"type:text" json:"description"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}
