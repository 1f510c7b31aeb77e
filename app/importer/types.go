package importer

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lysyi3m/product-sync/app/cache"
	"github.com/lysyi3m/product-sync/app/database"
)

// Import pipeline types

// RawTable is a parsed CSV source before any interpretation
type RawTable struct {
	Header  []string
	Records [][]string
	Source  string // URL or file path the data came from
}

// CanonicalRow holds one record remapped to the canonical schema, values
// still unparsed
type CanonicalRow struct {
	Name      string
	Category  string
	Price     string
	UpdatedAt string
	Malformed bool // record too short to carry all required columns
}

// ProductRow is a cleaned, typed row ready for reconciliation
type ProductRow struct {
	Identity  string // assigned by IdentityAssigner
	Name      string
	Category  string
	Price     decimal.Decimal
	UpdatedAt time.Time
}

// CleanStats counts rows rejected during cleaning
type CleanStats struct {
	Skipped int // empty name/category, bad price, in-batch duplicates
	Errors  int // structurally broken records
}

// Summary is the per-run result returned to callers and logged. Its JSON
// shape is the contract external tooling depends on.
type Summary struct {
	Created        int `json:"created"`
	Updated        int `json:"updated"`
	Skipped        int `json:"skipped"`
	Errors         int `json:"errors"`
	TotalProcessed int `json:"total_processed"`
}

// RunOptions parameterizes a single coordinator invocation
type RunOptions struct {
	Source       string // source name, for logging
	URL          string // optional remote URL (per-run override or configured)
	FallbackPath string
	Timeout      time.Duration
	Attempt      int // attempt number, for retry correlation
}

// ProductStore is the slice of the repository the pipeline depends on
type ProductStore interface {
	FindByIdentity(identities []string) (map[string]database.Product, error)
	CommitImport(creates []database.Product, updates []database.Product) error
}

// AggregateCache is the slice of the cache the pipeline depends on
type AggregateCache interface {
	Delete(key string) error
}

var _ AggregateCache = (*cache.Cache)(nil)
