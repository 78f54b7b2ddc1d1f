package service

import (
	"context"
	"testing"
	"time"

	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	"github.com/quonpass/quonpass-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testRepos struct {
	db       *gorm.DB
	stores   repository.StoreRepository
	products repository.ProductRepository
	targets  repository.TargetRepository
	sales    repository.SalesRepository
	users    repository.UserRepository
}

func setupRepos(t *testing.T) *testRepos {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return &testRepos{
		db:       testDB,
		stores:   repository.NewStoreRepository(testDB),
		products: repository.NewProductRepository(testDB),
		targets:  repository.NewTargetRepository(testDB),
		sales:    repository.NewSalesRepository(testDB),
		users:    repository.NewUserRepository(testDB),
	}
}

func createStore(t *testing.T, r *testRepos, name string) *model.Store {
	t.Helper()
	store := &model.Store{Name: name}
	require.NoError(t, r.db.Create(store).Error)
	return store
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// recordingInvalidator remembers which stores had their progress invalidated.
type recordingInvalidator struct {
	stores []uint
}

func (r *recordingInvalidator) InvalidateStore(_ context.Context, storeID uint) {
	r.stores = append(r.stores, storeID)
}

func mustParseDay(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}
