package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Rows are never physically deleted:
// IsActive=false marks a soft-deleted product.
// Timestamps are assigned by the service clock, not by GORM.
type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:255;not null;uniqueIndex:uni_products_name"`
	Description *string
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Category    *string         `gorm:"size:100;index"`
	IsActive    bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime:false"`
}

func (Product) TableName() string { return "products" }
