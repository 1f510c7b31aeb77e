package database

import (
	"github.com/shopspring/decimal"
)

type ProductFilter struct {
	Category string
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
	Page     int
	PageSize int
}

type CategoryPrice struct {
	Category string          `json:"category"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

type ProductRepository interface {
	FindByIdentity(identities []string) (map[string]Product, error)
	CommitImport(creates []Product, updates []Product) error

	ListProducts(filter ProductFilter) ([]Product, int, error)
	AvgPriceByCategory() ([]CategoryPrice, error)
	GetProductCount() (int, error)
}
