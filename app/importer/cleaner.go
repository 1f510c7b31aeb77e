package importer

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

// priceScale is the store's NUMERIC scale. Prices are rounded to it during
// cleaning so a re-import of the same value compares equal to the stored one.
const priceScale = 2

// Cleaner validates and coerces canonical rows. Rejections are never fatal;
// they are counted and the batch continues.
type Cleaner struct{}

func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Run returns the valid rows in input order. defaultUpdatedAt stands in for
// absent or unparseable timestamps; it never causes a rejection. Within-batch
// duplicates by normalized (name, category) keep the first occurrence.
func (c *Cleaner) Run(rows []CanonicalRow, defaultUpdatedAt time.Time) ([]ProductRow, CleanStats) {
	valid := make([]ProductRow, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	stats := CleanStats{}

	for _, row := range rows {
		if row.Malformed {
			stats.Errors++
			continue
		}

		name := strings.TrimSpace(row.Name)
		category := strings.TrimSpace(row.Category)
		if name == "" || category == "" {
			stats.Skipped++
			continue
		}

		price, err := decimal.NewFromString(strings.TrimSpace(row.Price))
		if err != nil || price.IsNegative() {
			stats.Skipped++
			continue
		}

		key := strings.ToLower(name) + "|" + strings.ToLower(category)
		if seen[key] {
			stats.Skipped++
			continue
		}
		seen[key] = true

		valid = append(valid, ProductRow{
			Name:      name,
			Category:  category,
			Price:     price.Round(priceScale),
			UpdatedAt: c.parseUpdatedAt(row.UpdatedAt, defaultUpdatedAt),
		})
	}

	return valid, stats
}

func (c *Cleaner) parseUpdatedAt(value string, defaultUpdatedAt time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultUpdatedAt
	}

	parsed, err := dateparse.ParseAny(value)
	if err != nil {
		return defaultUpdatedAt
	}

	// Postgres keeps microsecond precision; truncate so round-tripped
	// values compare equal during reconciliation.
	return parsed.UTC().Truncate(time.Microsecond)
}
