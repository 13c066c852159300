package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const storeKey = "inventory"

func seedProducts() []Product {
	return []Product{
		{ID: 1, Name: "Croquetas para perro adulto", Category: "Perro", Quantity: 50, Price: decimal.RequireFromString("350.00")},
		{ID: 2, Name: "Croquetas para gato adulto", Category: "Gato", Quantity: 30, Price: decimal.RequireFromString("280.00")},
		{ID: 3, Name: "Snacks para perro", Category: "Perro", Quantity: 100, Price: decimal.RequireFromString("120.00")},
	}
}

// Init writes the seed catalog when no inventory has been persisted yet.
func (r *Repository) Init(ctx context.Context) error {
	_, found, err := r.store.Get(ctx, storeKey)
	if err != nil {
		return fmt.Errorf("read inventory: %w", err)
	}
	if found {
		return nil
	}
	if err := r.save(ctx, seedProducts()); err != nil {
		return fmt.Errorf("seed inventory: %w", err)
	}
	r.log.Info("inventory seeded", zap.Int("products", len(seedProducts())))
	return nil
}

// load returns a fresh copy of the persisted snapshot for reads. Read
// failures and corrupt data are logged and yield an empty catalog.
func (r *Repository) load(ctx context.Context) []Product {
	products, err := r.read(ctx)
	if err != nil {
		r.log.Error("inventory unreadable, treating as empty", zap.Error(err))
		return []Product{}
	}
	return products
}

// read returns the persisted snapshot or an ErrStorage error. Mutations use
// it so a failed read never turns into a save of an empty catalog.
func (r *Repository) read(ctx context.Context) ([]Product, error) {
	raw, found, err := r.store.Get(ctx, storeKey)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", ErrStorage, err)
	}
	if !found || strings.TrimSpace(raw) == "" {
		return []Product{}, nil
	}

	var products []Product
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrStorage, err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

func (r *Repository) save(ctx context.Context, products []Product) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrStorage, err)
	}
	if err := r.store.Set(ctx, storeKey, string(raw)); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

func indexOf(products []Product, id int) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func nextID(products []Product) int {
	maxID := 0
	for _, p := range products {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	return maxID + 1
}
