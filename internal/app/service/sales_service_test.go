package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	apperrors "github.com/quonpass/quonpass-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func setupSalesService(t *testing.T) (*testRepos, SalesService, *model.Store, *recordingInvalidator) {
	r := setupRepos(t)
	inv := &recordingInvalidator{}
	store := createStore(t, r, "Umeda")
	return r, NewSalesService(r.sales, r.stores, r.products, inv), store, inv
}

func TestSalesService_ImportCSV_PartialSuccess(t *testing.T) {
	r, svc, store, inv := setupSalesService(t)
	require.NoError(t, r.products.Create(context.Background(), &model.Product{SKU: "TEA-01", Name: "Green tea"}))

	csvData := strings.Join([]string{
		"store_id,sale_date,sales_amount,customer_count,items_sold,product_sku,external_ref",
		fmt.Sprintf("%d,2025-03-01,\"12,000.50\",40,85,tea-01,POS-1", store.ID),
		fmt.Sprintf("%d,not-a-date,100,1,1,,", store.ID),
		"",
		fmt.Sprintf("%d,2025/03/03,900,9,9,,", store.ID),
		"999,2025-03-04,100,1,1,,",
		fmt.Sprintf("%d,2025-03-05,100,1,1,UNKNOWN,", store.ID),
		fmt.Sprintf("%d,2025-03-06,-5,1,1,,", store.ID),
	}, "\n")

	result, err := svc.ImportSales(context.Background(), strings.NewReader(csvData), "march.csv")
	require.NoError(t, err)

	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 4, result.Failed)
	require.Len(t, result.Errors, 4)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Message, "sale_date")
	assert.Equal(t, 6, result.Errors[1].Row)
	assert.Contains(t, result.Errors[1].Message, "store 999")
	assert.Equal(t, 7, result.Errors[2].Row)
	assert.Contains(t, result.Errors[2].Message, "UNKNOWN")
	assert.Equal(t, 8, result.Errors[3].Row)

	records, total, err := svc.ListSales(context.Background(), repository.SalesFilter{BatchID: result.BatchID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, records, 2)
	assert.Equal(t, 3, records[0].SaleDate.Day())
	assert.True(t, dec("12000.50").Equal(records[1].SalesAmount), records[1].SalesAmount.String())
	require.NotNil(t, records[1].ProductID)
	assert.Equal(t, "POS-1", records[1].ExternalRef)

	assert.Contains(t, inv.stores, store.ID)
}

func TestSalesService_ImportCSV_HeaderErrors(t *testing.T) {
	_, svc, _, _ := setupSalesService(t)
	ctx := context.Background()

	_, err := svc.ImportSales(ctx, strings.NewReader("store_id,sale_date\n1,2025-01-01\n"), "bad.csv")
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.SalesImportInvalid, appErr.Code)
	assert.Contains(t, appErr.Message, "sales_amount")

	_, err = svc.ImportSales(ctx, strings.NewReader("store_id,sale_date,sales_amount,customer_count,items_sold\n"), "empty.csv")
	assert.ErrorIs(t, err, ErrImportEmpty)

	_, err = svc.ImportSales(ctx, strings.NewReader("whatever"), "sales.txt")
	assert.ErrorIs(t, err, ErrUnsupportedImport)
}

func TestSalesService_ImportXLSX(t *testing.T) {
	_, svc, store, _ := setupSalesService(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Store_ID", "Sale_Date", "Sales_Amount", "Customer_Count", "Items_Sold"},
		{store.ID, "2025-04-01", "1500", "12", "30"},
		{store.ID, "2025-04-02", "abc", "1", "1"},
		{store.ID, "2025-04-03", "2500.25", "", "5"},
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	result, err := svc.ImportSales(context.Background(), &buf, "april.XLSX")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Message, "sales_amount")
}

func TestSalesService_ImportLargeFileInBatches(t *testing.T) {
	r, svc, store, _ := setupSalesService(t)

	var sb strings.Builder
	sb.WriteString("store_id,sale_date,sales_amount,customer_count,items_sold\n")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 1200; i++ {
		fmt.Fprintf(&sb, "%d,%s,10,1,1\n", store.ID, start.AddDate(0, 0, i%365).Format("2006-01-02"))
	}

	result, err := svc.ImportSales(context.Background(), strings.NewReader(sb.String()), "year.csv")
	require.NoError(t, err)
	assert.Equal(t, 1200, result.Imported)
	assert.Empty(t, result.Errors)

	var count int64
	require.NoError(t, r.db.Model(&model.SalesRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1200), count)
}

func TestSalesService_CreateAndDelete(t *testing.T) {
	_, svc, store, inv := setupSalesService(t)
	ctx := context.Background()

	record, err := svc.CreateSale(ctx, SalesRecordInput{
		StoreID:       store.ID,
		SaleDate:      time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC),
		SalesAmount:   dec("4321.129"),
		CustomerCount: 3,
		ItemsSold:     4,
	})
	require.NoError(t, err)
	assert.True(t, dec("4321.13").Equal(record.SalesAmount))
	require.NotNil(t, record.Store)

	_, err = svc.CreateSale(ctx, SalesRecordInput{StoreID: store.ID + 9, SaleDate: time.Now(), SalesAmount: dec("1")})
	assert.ErrorIs(t, err, ErrStoreNotFound)

	_, err = svc.CreateSale(ctx, SalesRecordInput{StoreID: store.ID, SaleDate: time.Now(), SalesAmount: dec("-1")})
	assert.ErrorIs(t, err, ErrNegativeSales)

	productID := uint(404)
	_, err = svc.CreateSale(ctx, SalesRecordInput{StoreID: store.ID, ProductID: &productID, SaleDate: time.Now(), SalesAmount: dec("1")})
	assert.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, svc.DeleteSale(ctx, record.ID))
	assert.ErrorIs(t, svc.DeleteSale(ctx, record.ID), ErrSalesRecordNotFound)
	assert.Len(t, inv.stores, 2)
}

func TestSalesService_ListSales_InvalidRange(t *testing.T) {
	_, svc, _, _ := setupSalesService(t)
	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, _, err := svc.ListSales(context.Background(), repository.SalesFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}
