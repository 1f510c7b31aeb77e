package importer

import (
	"fmt"
	"sort"
	"strings"
)

// columnAliases maps each canonical column to the source header names it
// accepts. Matching is case-insensitive after trimming. Unknown columns are
// dropped silently.
var columnAliases = map[string][]string{
	"name":       {"name", "product_name", "title"},
	"category":   {"category", "product_category", "type"},
	"price":      {"price", "cost", "amount"},
	"updated_at": {"updated_at", "last_updated", "modified_at"},
}

// requiredColumns must all resolve from the header; updated_at is optional
var requiredColumns = []string{"name", "category", "price"}

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Run maps the raw table onto the canonical schema. When several aliases of
// one canonical column are present, the first in header order wins.
func (n *Normalizer) Run(table *RawTable) ([]CanonicalRow, error) {
	aliasToCanonical := make(map[string]string)
	for canonical, aliases := range columnAliases {
		for _, alias := range aliases {
			aliasToCanonical[alias] = canonical
		}
	}

	columnIndex := make(map[string]int, len(columnAliases))
	for i, header := range table.Header {
		canonical, ok := aliasToCanonical[strings.ToLower(strings.TrimSpace(header))]
		if !ok {
			continue
		}
		if _, exists := columnIndex[canonical]; !exists {
			columnIndex[canonical] = i
		}
	}

	var missing []string
	for _, required := range requiredColumns {
		if _, ok := columnIndex[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: missing required columns: %s", ErrSchema, strings.Join(missing, ", "))
	}

	rows := make([]CanonicalRow, 0, len(table.Records))
	for _, record := range table.Records {
		row := CanonicalRow{
			Name:     fieldAt(record, columnIndex["name"]),
			Category: fieldAt(record, columnIndex["category"]),
			Price:    fieldAt(record, columnIndex["price"]),
		}

		if idx, ok := columnIndex["updated_at"]; ok {
			row.UpdatedAt = fieldAt(record, idx)
		}

		// A record shorter than the mapped required columns cannot be
		// validated; the cleaner counts it as an error.
		for _, required := range requiredColumns {
			if columnIndex[required] >= len(record) {
				row.Malformed = true
				break
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func fieldAt(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}
