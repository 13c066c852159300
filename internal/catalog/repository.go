package catalog

import (
	"context"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"Inventario/internal/history"
	"Inventario/internal/kv"
	"Inventario/pkg/kit"
)

// ActorSource names the user responsible for a change.
type ActorSource interface {
	CurrentActor(ctx context.Context) string
}

// HistoryAppender receives one record per successful catalog mutation.
type HistoryAppender interface {
	Append(ctx context.Context, rec history.Record) (history.Record, error)
}

// Repository is the only writer of the inventory snapshot. Each operation
// reads the snapshot, changes a copy, persists it in full and then appends to
// the history log. The two writes are not atomic: if the history append fails
// the catalog change stays and the failure is only logged.
//
// Mutations hold mu from the read through the history append, so writers in
// one process never interleave. Separate processes sharing a store are not
// coordinated.
type Repository struct {
	mu sync.Mutex

	store   kv.Store
	history HistoryAppender
	actors  ActorSource
	log     *zap.Logger
}

func NewRepository(store kv.Store, hist HistoryAppender, actors ActorSource, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{
		store:   store,
		history: hist,
		actors:  actors,
		log:     log,
	}
}

func (r *Repository) List(ctx context.Context) []Product {
	return r.load(ctx)
}

func (r *Repository) Find(ctx context.Context, id int) (Product, bool) {
	products := r.load(ctx)
	i := indexOf(products, id)
	if i < 0 {
		return Product{}, false
	}
	return products[i], true
}

func (r *Repository) Search(ctx context.Context, term string) []Product {
	return Search(r.load(ctx), term)
}

// Create assigns the next id and records an ADD.
func (r *Repository) Create(ctx context.Context, d Draft) (Product, error) {
	p, err := d.Normalize()
	if err != nil {
		return Product{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.read(ctx)
	if err != nil {
		r.log.Error("create product aborted", zap.Error(err))
		return Product{}, err
	}
	p.ID = nextID(products)
	products = append(products, p)

	if err := r.save(ctx, products); err != nil {
		r.log.Error("create product failed", zap.Error(err), zap.Int("product_id", p.ID))
		return Product{}, err
	}

	r.record(ctx, history.ActionAdd, p, 0, p.Quantity)
	return p, nil
}

// Update replaces every field but the id. An UPDATE record is written only
// when the quantity changes.
func (r *Repository) Update(ctx context.Context, id int, d Draft) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.read(ctx)
	if err != nil {
		r.log.Error("update product aborted", zap.Error(err), zap.Int("product_id", id))
		return Product{}, err
	}
	i := indexOf(products, id)
	if i < 0 {
		return Product{}, ErrNotFound
	}

	next, err := d.Normalize()
	if err != nil {
		return Product{}, err
	}
	next.ID = id
	old := products[i]
	products[i] = next

	if err := r.save(ctx, products); err != nil {
		r.log.Error("update product failed", zap.Error(err), zap.Int("product_id", id))
		return Product{}, err
	}

	if old.Quantity != next.Quantity {
		r.record(ctx, history.ActionUpdate, next, old.Quantity, next.Quantity)
	}
	return next, nil
}

func (r *Repository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.read(ctx)
	if err != nil {
		r.log.Error("delete product aborted", zap.Error(err), zap.Int("product_id", id))
		return err
	}
	i := indexOf(products, id)
	if i < 0 {
		return ErrNotFound
	}

	removed := products[i]
	products = append(products[:i], products[i+1:]...)

	if err := r.save(ctx, products); err != nil {
		r.log.Error("delete product failed", zap.Error(err), zap.Int("product_id", id))
		return err
	}

	r.record(ctx, history.ActionDelete, removed, removed.Quantity, 0)
	return nil
}

// AdjustQuantity adds delta to the stock. A result below zero is rejected
// without touching the store, as is a result past the int range. A zero
// delta is recorded as a DECREMENT.
func (r *Repository) AdjustQuantity(ctx context.Context, id, delta int) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.read(ctx)
	if err != nil {
		r.log.Error("adjust quantity aborted", zap.Error(err), zap.Int("product_id", id))
		return Product{}, err
	}
	i := indexOf(products, id)
	if i < 0 {
		return Product{}, ErrNotFound
	}

	old := products[i].Quantity
	if (delta > 0 && old > math.MaxInt-delta) || (delta < 0 && old < math.MinInt-delta) {
		return Product{}, kit.NewValidationError("delta", "quantity out of range")
	}
	qty := old + delta
	if qty < 0 {
		return Product{}, ErrInsufficientStock
	}
	products[i].Quantity = qty

	if err := r.save(ctx, products); err != nil {
		r.log.Error("adjust quantity failed", zap.Error(err), zap.Int("product_id", id), zap.Int("delta", delta))
		return Product{}, err
	}

	action := history.ActionDecrement
	if delta > 0 {
		action = history.ActionIncrement
	}
	r.record(ctx, action, products[i], old, qty)
	return products[i], nil
}

func (r *Repository) record(ctx context.Context, action history.Action, p Product, oldQty, newQty int) {
	if r.history == nil {
		return
	}

	rec := history.Record{
		Username:    r.actor(ctx),
		ProductID:   p.ID,
		ProductName: p.Name,
		Action:      action,
		OldQuantity: oldQty,
		NewQuantity: newQty,
	}
	if _, err := r.history.Append(ctx, rec); err != nil {
		r.log.Warn("history append failed after catalog write",
			zap.Error(err),
			zap.String("action", string(action)),
			zap.Int("product_id", p.ID),
		)
	}
}

func (r *Repository) actor(ctx context.Context) string {
	if r.actors == nil {
		return history.SystemActor
	}
	if a := strings.TrimSpace(r.actors.CurrentActor(ctx)); a != "" {
		return a
	}
	return history.SystemActor
}
