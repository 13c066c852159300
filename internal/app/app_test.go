package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Inventario/internal/catalog"
	"Inventario/internal/config"
	"Inventario/internal/history"
	"Inventario/internal/kv"
)

func boltConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store = config.StoreConfig{Driver: kv.DriverBolt, DSN: filepath.Join(t.TempDir(), "inventario.db")}
	cfg.Location = "UTC"
	return cfg
}

func TestOpen_SeedsAndPersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	cfg := boltConfig(t)

	a, err := Open(ctx, cfg, zap.NewNop(), Options{})
	require.NoError(t, err)
	assert.Len(t, a.Catalog.List(ctx), 3)

	_, err = a.Users.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	_, err = a.Catalog.AdjustQuantity(ctx, 3, 10)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	a, err = Open(ctx, cfg, zap.NewNop(), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	p, ok := a.Catalog.Find(ctx, 3)
	require.True(t, ok)
	assert.Equal(t, 110, p.Quantity)

	records := a.History.ListAll(ctx)
	require.Len(t, records, 1)
	assert.Equal(t, "admin", records[0].Username)
	assert.Equal(t, "admin", a.Session.CurrentActor(ctx))
}

func TestOpen_AnonymousCreateIsAttributedToSystem(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	cfg := config.Default()
	cfg.Store = config.StoreConfig{Driver: kv.DriverMemory}
	cfg.Location = "UTC"

	a, err := Open(ctx, cfg, zap.NewNop(), Options{Registry: reg, Now: func() time.Time { return now }})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	p, err := a.Catalog.Create(ctx, catalog.Draft{Name: "Arena", Category: "Gato", Quantity: "20", Price: "99.5"})
	require.NoError(t, err)
	assert.Equal(t, 4, p.ID)

	got := a.History.Query(ctx, history.Filter{User: history.SystemActor, Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)})
	require.Len(t, got, 1)
	assert.Equal(t, history.ActionAdd, got[0].Action)
	assert.Equal(t, 20, got[0].NewQuantity)

	assert.Equal(t, 1.0, counterValue(t, reg, "inventory_history_records_total"))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "redis"

	_, err := Open(context.Background(), cfg, zap.NewNop(), Options{})
	require.Error(t, err)
}
