package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers (3500.5), not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name        string          `json:"name"        validate:"required,min=3,max=255"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"       validate:"required,gt=0,lt=100000000"`
	Category    *string         `json:"category"    validate:"omitempty,max=100"`
}

// UpdateProductRequest is a partial patch: only fields present in the body are applied.
// Name, Price and IsActive cannot be cleared, so null is treated like an omitted field.
// Description and Category are nullable and use Optional to tell null from omitted.
type UpdateProductRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,min=3,max=255"`
	Description Optional[string] `json:"description"`
	Price       *decimal.Decimal `json:"price"       validate:"omitempty,gt=0,lt=100000000"`
	Category    Optional[string] `json:"category"    validate:"omitempty,max=100"`
	IsActive    *bool            `json:"is_active"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	Category string `form:"category"`
	Skip     int    `form:"skip,default=0"    validate:"min=0"`
	Limit    int    `form:"limit,default=100" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    *string         `json:"category"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"

	DatabaseConnected    = "connected"
	DatabaseDisconnected = "disconnected"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Database string `json:"database"`
}
