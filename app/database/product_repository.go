package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Statements are chunked to stay well below the Postgres parameter limit.
const commitChunkSize = 500

type productRepository struct {
	db *DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *DB) ProductRepository {
	return &productRepository{db: db}
}

// FindByIdentity returns existing products keyed by external identity,
// using a single batch lookup
func (r *productRepository) FindByIdentity(identities []string) (map[string]Product, error) {
	existing := make(map[string]Product, len(identities))
	if len(identities) == 0 {
		return existing, nil
	}

	rows, err := r.db.Query(`
		SELECT id, external_id, name, category, price, updated_at, created_at, modified_at
		FROM products
		WHERE external_id = ANY($1)
	`, pq.Array(identities))
	if err != nil {
		return nil, fmt.Errorf("failed to find products by identity: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p Product
		err := rows.Scan(
			&p.ID, &p.ExternalID, &p.Name, &p.Category,
			&p.Price, &p.UpdatedAt, &p.CreatedAt, &p.ModifiedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		existing[p.ExternalID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}

	return existing, nil
}

// CommitImport applies all creates and updates of one import run in a single
// transaction. Creates upsert on identity conflict so concurrent runs cannot
// both insert the same product; the last committed write wins.
func (r *productRepository) CommitImport(creates []Product, updates []Product) error {
	if len(creates) == 0 && len(updates) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(creates); start += commitChunkSize {
		end := min(start+commitChunkSize, len(creates))
		if err := r.createBatch(tx, creates[start:end]); err != nil {
			return err
		}
	}

	for start := 0; start < len(updates); start += commitChunkSize {
		end := min(start+commitChunkSize, len(updates))
		if err := r.updateBatch(tx, updates[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	return nil
}

func (r *productRepository) createBatch(tx *sql.Tx, products []Product) error {
	if len(products) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(products))
	args := make([]interface{}, 0, len(products)*5)
	for i, p := range products {
		base := i * 5
		placeholders = append(placeholders,
			fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5))
		args = append(args, p.ExternalID, p.Name, p.Category, p.Price, p.UpdatedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO products (external_id, name, category, price, updated_at)
		VALUES %s
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			updated_at = EXCLUDED.updated_at,
			modified_at = NOW()
	`, strings.Join(placeholders, ", "))

	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to create products: %w", err)
	}

	return nil
}

func (r *productRepository) updateBatch(tx *sql.Tx, products []Product) error {
	if len(products) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(products))
	args := make([]interface{}, 0, len(products)*5)
	for i, p := range products {
		base := i * 5
		placeholders = append(placeholders,
			fmt.Sprintf("($%d::varchar, $%d::text, $%d::text, $%d::numeric, $%d::timestamptz)",
				base+1, base+2, base+3, base+4, base+5))
		args = append(args, p.ExternalID, p.Name, p.Category, p.Price, p.UpdatedAt)
	}

	query := fmt.Sprintf(`
		UPDATE products AS p SET
			name = v.name,
			category = v.category,
			price = v.price,
			updated_at = v.updated_at,
			modified_at = NOW()
		FROM (VALUES %s) AS v (external_id, name, category, price, updated_at)
		WHERE p.external_id = v.external_id
	`, strings.Join(placeholders, ", "))

	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update products: %w", err)
	}

	return nil
}

// ListProducts returns one page of products matching the filter plus the
// total match count for pagination
func (r *productRepository) ListProducts(filter ProductFilter) ([]Product, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("LOWER(category) = LOWER($%d)", len(args)))
	}
	if filter.PriceMin != nil {
		args = append(args, *filter.PriceMin)
		conditions = append(conditions, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.PriceMax != nil {
		args = append(args, *filter.PriceMax)
		conditions = append(conditions, fmt.Sprintf("price <= $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", where)
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(`
		SELECT id, external_id, name, category, price, updated_at, created_at, modified_at
		FROM products
		%s
		ORDER BY updated_at DESC, external_id
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		err := rows.Scan(
			&p.ID, &p.ExternalID, &p.Name, &p.Category,
			&p.Price, &p.UpdatedAt, &p.CreatedAt, &p.ModifiedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating product rows: %w", err)
	}

	return products, total, nil
}

// AvgPriceByCategory computes the average product price per category,
// rounded to two decimal places
func (r *productRepository) AvgPriceByCategory() ([]CategoryPrice, error) {
	rows, err := r.db.Query(`
		SELECT category, ROUND(AVG(price), 2) AS avg_price
		FROM products
		GROUP BY category
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to compute average price by category: %w", err)
	}
	defer rows.Close()

	// Empty table serializes as [] rather than null.
	stats := []CategoryPrice{}
	for rows.Next() {
		var cp CategoryPrice
		if err := rows.Scan(&cp.Category, &cp.AvgPrice); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		stats = append(stats, cp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aggregate rows: %w", err)
	}

	return stats, nil
}

// GetProductCount returns the total number of products
func (r *productRepository) GetProductCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get product count: %w", err)
	}
	return count, nil
}
