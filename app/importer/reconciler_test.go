package importer

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lysyi3m/product-sync/app/database"
)

// MockProductStore implements ProductStore for testing
type MockProductStore struct {
	existing    map[string]database.Product
	findErr     error
	commitErr   error
	creates     []database.Product
	updates     []database.Product
	commitCalls int
}

func (m *MockProductStore) FindByIdentity(identities []string) (map[string]database.Product, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.existing == nil {
		return map[string]database.Product{}, nil
	}
	return m.existing, nil
}

func (m *MockProductStore) CommitImport(creates []database.Product, updates []database.Product) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.commitCalls++
	m.creates = creates
	m.updates = updates
	return nil
}

func identifiedRow(name, category, price string, updatedAt time.Time) ProductRow {
	return ProductRow{
		Identity:  Identity(name, category),
		Name:      name,
		Category:  category,
		Price:     decimal.RequireFromString(price),
		UpdatedAt: updatedAt,
	}
}

func TestReconcilerCreatesNewProducts(t *testing.T) {
	store := &MockProductStore{}
	reconciler := NewReconciler(store)

	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	rows := []ProductRow{
		identifiedRow("Laptop Pro 15", "Electronics", "1299.99", now),
		identifiedRow("Wireless Mouse", "Electronics", "29.99", now),
	}

	created, updated, unchanged, err := reconciler.Run(rows)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if created != 2 || updated != 0 || unchanged != 0 {
		t.Errorf("Expected 2/0/0, got %d/%d/%d", created, updated, unchanged)
	}
	if len(store.creates) != 2 {
		t.Errorf("Expected 2 creates committed, got %d", len(store.creates))
	}
	if store.creates[0].ExternalID != rows[0].Identity {
		t.Errorf("Expected external_id '%s', got '%s'", rows[0].Identity, store.creates[0].ExternalID)
	}
}

func TestReconcilerUpdatesChangedProducts(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	row := identifiedRow("Laptop Pro 15", "Electronics", "1199.99", now)

	store := &MockProductStore{
		existing: map[string]database.Product{
			row.Identity: {
				ExternalID: row.Identity,
				Name:       "Laptop Pro 15",
				Category:   "Electronics",
				Price:      decimal.RequireFromString("1299.99"),
				UpdatedAt:  now,
			},
		},
	}
	reconciler := NewReconciler(store)

	created, updated, unchanged, err := reconciler.Run([]ProductRow{row})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if created != 0 || updated != 1 || unchanged != 0 {
		t.Errorf("Expected 0/1/0, got %d/%d/%d", created, updated, unchanged)
	}
	if len(store.updates) != 1 {
		t.Fatalf("Expected 1 update committed, got %d", len(store.updates))
	}
	if !store.updates[0].Price.Equal(decimal.RequireFromString("1199.99")) {
		t.Errorf("Expected new price committed, got %s", store.updates[0].Price)
	}
}

func TestReconcilerUnchangedIsNoOp(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	row := identifiedRow("Laptop Pro 15", "Electronics", "1299.99", now)

	store := &MockProductStore{
		existing: map[string]database.Product{
			row.Identity: {
				ExternalID: row.Identity,
				Name:       "Laptop Pro 15",
				Category:   "Electronics",
				// Same value at a different decimal scale still matches.
				Price:     decimal.RequireFromString("1299.990"),
				UpdatedAt: now,
			},
		},
	}
	reconciler := NewReconciler(store)

	created, updated, unchanged, err := reconciler.Run([]ProductRow{row})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if created != 0 || updated != 0 || unchanged != 1 {
		t.Errorf("Expected 0/0/1, got %d/%d/%d", created, updated, unchanged)
	}
	if len(store.creates) != 0 || len(store.updates) != 0 {
		t.Errorf("Expected empty commit, got %d creates and %d updates", len(store.creates), len(store.updates))
	}
}

func TestReconcilerMixedBatch(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	unchangedRow := identifiedRow("Laptop Pro 15", "Electronics", "1299.99", now)
	changedRow := identifiedRow("Wireless Mouse", "Electronics", "24.99", now)
	newRow := identifiedRow("Desk Lamp", "Home", "34.50", now)

	store := &MockProductStore{
		existing: map[string]database.Product{
			unchangedRow.Identity: {
				ExternalID: unchangedRow.Identity,
				Name:       "Laptop Pro 15",
				Category:   "Electronics",
				Price:      decimal.RequireFromString("1299.99"),
				UpdatedAt:  now,
			},
			changedRow.Identity: {
				ExternalID: changedRow.Identity,
				Name:       "Wireless Mouse",
				Category:   "Electronics",
				Price:      decimal.RequireFromString("29.99"),
				UpdatedAt:  now,
			},
		},
	}
	reconciler := NewReconciler(store)

	created, updated, unchanged, err := reconciler.Run([]ProductRow{unchangedRow, changedRow, newRow})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if created != 1 || updated != 1 || unchanged != 1 {
		t.Errorf("Expected 1/1/1, got %d/%d/%d", created, updated, unchanged)
	}
}

func TestReconcilerEmptyInput(t *testing.T) {
	store := &MockProductStore{}
	reconciler := NewReconciler(store)

	created, updated, unchanged, err := reconciler.Run(nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if created != 0 || updated != 0 || unchanged != 0 {
		t.Errorf("Expected 0/0/0, got %d/%d/%d", created, updated, unchanged)
	}
	if store.commitCalls != 0 {
		t.Errorf("Expected no commit for empty input, got %d", store.commitCalls)
	}
}

func TestReconcilerCommitFailure(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	store := &MockProductStore{commitErr: errors.New("connection reset")}
	reconciler := NewReconciler(store)

	_, _, _, err := reconciler.Run([]ProductRow{
		identifiedRow("Laptop Pro 15", "Electronics", "1299.99", now),
	})

	if err == nil {
		t.Fatal("Expected commit error")
	}
	if !errors.Is(err, ErrStoreCommit) {
		t.Errorf("Expected ErrStoreCommit, got: %v", err)
	}
	if store.commitCalls != 0 {
		t.Errorf("Expected no successful commit, got %d", store.commitCalls)
	}
}

func TestReconcilerLookupFailure(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	store := &MockProductStore{findErr: errors.New("query timeout")}
	reconciler := NewReconciler(store)

	_, _, _, err := reconciler.Run([]ProductRow{
		identifiedRow("Laptop Pro 15", "Electronics", "1299.99", now),
	})

	if err == nil {
		t.Fatal("Expected lookup error")
	}
	if store.commitCalls != 0 {
		t.Errorf("Expected no commit after lookup failure, got %d", store.commitCalls)
	}
}
