package importer

import (
	"fmt"

	"github.com/lysyi3m/product-sync/app/database"
)

// Reconciler diffs identified rows against the store and applies the result
// as one atomic commit. Rows whose stored fields already match are no-ops;
// they are counted but never written.
type Reconciler struct {
	store ProductStore
}

func NewReconciler(store ProductStore) *Reconciler {
	return &Reconciler{store: store}
}

func (r *Reconciler) Run(rows []ProductRow) (created, updated, unchanged int, err error) {
	if len(rows) == 0 {
		return 0, 0, 0, nil
	}

	identities := make([]string, len(rows))
	for i, row := range rows {
		identities[i] = row.Identity
	}

	existing, err := r.store.FindByIdentity(identities)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to look up existing products: %w", err)
	}

	var creates, updates []database.Product
	for _, row := range rows {
		product := database.Product{
			ExternalID: row.Identity,
			Name:       row.Name,
			Category:   row.Category,
			Price:      row.Price,
			UpdatedAt:  row.UpdatedAt,
		}

		current, ok := existing[row.Identity]
		if !ok {
			creates = append(creates, product)
			continue
		}

		if fieldsEqual(current, row) {
			unchanged++
			continue
		}
		updates = append(updates, product)
	}

	if err := r.store.CommitImport(creates, updates); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %v", ErrStoreCommit, err)
	}

	return len(creates), len(updates), unchanged, nil
}

func fieldsEqual(current database.Product, row ProductRow) bool {
	return current.Name == row.Name &&
		current.Category == row.Category &&
		current.Price.Equal(row.Price) &&
		current.UpdatedAt.Equal(row.UpdatedAt)
}
