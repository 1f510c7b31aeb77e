package database

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product record in the database
type Product struct {
	ID         string // Database UUID
	ExternalID string // Deterministic identity derived from name and category
	Name       string
	Category   string
	Price      decimal.Decimal
	UpdatedAt  time.Time // Source-provided timestamp
	CreatedAt  time.Time
	ModifiedAt time.Time // Tracks last write by the pipeline
}
