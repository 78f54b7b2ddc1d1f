package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}

func setupSalesTest(t *testing.T) (*gorm.DB, SalesRepository, *model.Store) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	store := &model.Store{Name: "Fukuoka"}
	require.NoError(t, testDB.Create(store).Error)
	return testDB, NewSalesRepository(testDB), store
}

func TestSalesRepository_CreateBatch(t *testing.T) {
	testDB, repo, store := setupSalesTest(t)

	records := make([]model.SalesRecord, 0, 12)
	for i := 1; i <= 12; i++ {
		records = append(records, model.SalesRecord{
			StoreID:       store.ID,
			SaleDate:      mustDate(t, fmt.Sprintf("2025-03-%02d", i)),
			SalesAmount:   decimal.NewFromInt(1000),
			CustomerCount: 10,
			ItemsSold:     20,
			ImportBatchID: "batch-1",
		})
	}
	require.NoError(t, repo.CreateBatch(context.Background(), records, 5))

	var count int64
	require.NoError(t, testDB.Model(&model.SalesRecord{}).Where("import_batch_id = ?", "batch-1").Count(&count).Error)
	assert.Equal(t, int64(12), count)
}

func TestSalesRepository_CreateBatch_RollsBackOnFailure(t *testing.T) {
	testDB, repo, store := setupSalesTest(t)

	records := []model.SalesRecord{
		{StoreID: store.ID, SaleDate: mustDate(t, "2025-03-01"), SalesAmount: decimal.NewFromInt(10)},
		{StoreID: store.ID + 50, SaleDate: mustDate(t, "2025-03-02"), SalesAmount: decimal.NewFromInt(10)},
	}
	assert.Error(t, repo.CreateBatch(context.Background(), records, 1))

	var count int64
	require.NoError(t, testDB.Model(&model.SalesRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSalesRepository_FindWithFilter(t *testing.T) {
	_, repo, store := setupSalesTest(t)
	ctx := context.Background()

	for _, day := range []string{"2025-03-01", "2025-03-15", "2025-04-01"} {
		require.NoError(t, repo.Create(ctx, &model.SalesRecord{
			StoreID:     store.ID,
			SaleDate:    mustDate(t, day),
			SalesAmount: decimal.NewFromInt(500),
		}))
	}

	from := mustDate(t, "2025-03-01")
	to := mustDate(t, "2025-03-31")
	records, total, err := repo.FindWithFilter(ctx, SalesFilter{StoreID: &store.ID, From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, records, 2)
	assert.Equal(t, 15, records[0].SaleDate.Day())

	page, total, err := repo.FindWithFilter(ctx, SalesFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 1)
}

func TestSalesRepository_Totals(t *testing.T) {
	_, repo, store := setupSalesTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.SalesRecord{
		StoreID: store.ID, SaleDate: mustDate(t, "2025-05-02"),
		SalesAmount: decimal.RequireFromString("1200.50"), CustomerCount: 12, ItemsSold: 30,
	}))
	require.NoError(t, repo.Create(ctx, &model.SalesRecord{
		StoreID: store.ID, SaleDate: mustDate(t, "2025-05-09"),
		SalesAmount: decimal.RequireFromString("799.50"), CustomerCount: 8, ItemsSold: 10,
	}))
	require.NoError(t, repo.Create(ctx, &model.SalesRecord{
		StoreID: store.ID, SaleDate: mustDate(t, "2025-06-01"),
		SalesAmount: decimal.NewFromInt(9999),
	}))

	totals, err := repo.Totals(ctx, store.ID, mustDate(t, "2025-05-01"), mustDate(t, "2025-05-31"))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2000).Equal(totals.SalesAmount), totals.SalesAmount.String())
	assert.Equal(t, int64(20), totals.CustomerCount)
	assert.Equal(t, int64(40), totals.ItemsSold)

	empty, err := repo.Totals(ctx, store.ID, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-31"))
	require.NoError(t, err)
	assert.True(t, empty.SalesAmount.IsZero())
}
