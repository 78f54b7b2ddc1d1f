package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	apperrors "github.com/quonpass/quonpass-backend/internal/errors"
	"github.com/quonpass/quonpass-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ImportBatchSize is the number of rows sent per INSERT during an import.
const ImportBatchSize = 500

var (
	ErrNegativeSales   = apperrors.Validation(apperrors.ValidationInvalidRange, "sales figures must not be negative")
	ErrInvalidSaleDate = apperrors.Validation(apperrors.ValidationInvalidInput, "sale_date is required")
)

var requiredImportColumns = []string{"store_id", "sale_date", "sales_amount", "customer_count", "items_sold"}

// saleDateLayouts are tried in order; spreadsheets often export the short US forms.
var saleDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/2006",
	"1/2/06",
	"01-02-06",
}

type SalesRecordInput struct {
	StoreID       uint
	ProductID     *uint
	SaleDate      time.Time
	SalesAmount   decimal.Decimal
	CustomerCount int
	ItemsSold     int
	ExternalRef   string
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult reports a partially successful import: valid rows are stored,
// invalid ones are listed with their 1-based row number (the header is row 1).
type ImportResult struct {
	BatchID  string           `json:"batch_id"`
	Imported int              `json:"imported"`
	Failed   int              `json:"failed"`
	Errors   []ImportRowError `json:"errors"`
}

type SalesService interface {
	ListSales(ctx context.Context, filter repository.SalesFilter) ([]model.SalesRecord, int64, error)
	GetSale(ctx context.Context, id uint) (*model.SalesRecord, error)
	CreateSale(ctx context.Context, input SalesRecordInput) (*model.SalesRecord, error)
	DeleteSale(ctx context.Context, id uint) error
	ImportSales(ctx context.Context, r io.Reader, filename string) (*ImportResult, error)
}

type salesService struct {
	salesRepo   repository.SalesRepository
	storeRepo   repository.StoreRepository
	productRepo repository.ProductRepository
	progress    ProgressInvalidator
}

func NewSalesService(
	salesRepo repository.SalesRepository,
	storeRepo repository.StoreRepository,
	productRepo repository.ProductRepository,
	progress ProgressInvalidator,
) SalesService {
	return &salesService{
		salesRepo:   salesRepo,
		storeRepo:   storeRepo,
		productRepo: productRepo,
		progress:    progress,
	}
}

func (s *salesService) invalidate(ctx context.Context, storeID uint) {
	if s.progress != nil {
		s.progress.InvalidateStore(ctx, storeID)
	}
}

func (s *salesService) ListSales(ctx context.Context, filter repository.SalesFilter) ([]model.SalesRecord, int64, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, 0, ErrInvalidDateRange
	}
	return s.salesRepo.FindWithFilter(ctx, filter)
}

func (s *salesService) GetSale(ctx context.Context, id uint) (*model.SalesRecord, error) {
	record, err := s.salesRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrSalesRecordNotFound)
	}
	return record, nil
}

func (s *salesService) CreateSale(ctx context.Context, input SalesRecordInput) (*model.SalesRecord, error) {
	if input.SaleDate.IsZero() {
		return nil, ErrInvalidSaleDate
	}
	if input.SalesAmount.IsNegative() || input.CustomerCount < 0 || input.ItemsSold < 0 {
		return nil, ErrNegativeSales
	}
	if _, err := s.storeRepo.FindByID(ctx, input.StoreID); err != nil {
		return nil, notFound(err, ErrStoreNotFound)
	}
	if input.ProductID != nil {
		if _, err := s.productRepo.FindByID(ctx, *input.ProductID); err != nil {
			return nil, notFound(err, ErrProductNotFound)
		}
	}

	record := &model.SalesRecord{
		StoreID:       input.StoreID,
		ProductID:     input.ProductID,
		SaleDate:      normalizeDate(input.SaleDate),
		SalesAmount:   input.SalesAmount.Round(2),
		CustomerCount: input.CustomerCount,
		ItemsSold:     input.ItemsSold,
		ExternalRef:   strings.TrimSpace(input.ExternalRef),
	}
	if err := s.salesRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	logger.Info("Sales record created", map[string]interface{}{
		"sales_record_id": record.ID,
		"store_id":        record.StoreID,
		"sale_date":       record.SaleDate.Format("2006-01-02"),
	})
	s.invalidate(ctx, record.StoreID)
	return s.GetSale(ctx, record.ID)
}

func (s *salesService) DeleteSale(ctx context.Context, id uint) error {
	record, err := s.salesRepo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, ErrSalesRecordNotFound)
	}
	if err := s.salesRepo.Delete(ctx, id); err != nil {
		return notFound(err, ErrSalesRecordNotFound)
	}
	s.invalidate(ctx, record.StoreID)
	return nil
}

// importRow is one data row with the line it came from.
type importRow struct {
	line  int
	cells []string
}

type parsedSale struct {
	line   int
	record model.SalesRecord
	sku    string
}

func (s *salesService) ImportSales(ctx context.Context, r io.Reader, filename string) (*ImportResult, error) {
	log := logger.WithContext(map[string]interface{}{
		"filename": filename,
	})
	log.Info("Starting sales import")

	header, rows, err := readImportRows(r, filename)
	if err != nil {
		return nil, err
	}
	columns, err := mapImportHeader(header)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrImportEmpty
	}

	result := &ImportResult{
		BatchID: uuid.NewString(),
		Errors:  []ImportRowError{},
	}
	fail := func(line int, msg string) {
		result.Errors = append(result.Errors, ImportRowError{Row: line, Message: msg})
	}

	parsed := make([]parsedSale, 0, len(rows))
	storeIDs := make([]uint, 0)
	skus := make([]string, 0)
	seenStore := map[uint]bool{}
	seenSKU := map[string]bool{}

	for _, row := range rows {
		sale, err := parseImportRow(row, columns)
		if err != nil {
			fail(row.line, err.Error())
			continue
		}
		sale.record.ImportBatchID = result.BatchID
		parsed = append(parsed, sale)

		if !seenStore[sale.record.StoreID] {
			seenStore[sale.record.StoreID] = true
			storeIDs = append(storeIDs, sale.record.StoreID)
		}
		if sale.sku != "" && !seenSKU[sale.sku] {
			seenSKU[sale.sku] = true
			skus = append(skus, sale.sku)
		}
	}

	knownStores, err := s.storeRepo.ExistingIDs(ctx, storeIDs)
	if err != nil {
		return nil, err
	}
	productIDs, err := s.productRepo.FindIDsBySKUs(ctx, skus)
	if err != nil {
		return nil, err
	}

	records := make([]model.SalesRecord, 0, len(parsed))
	touched := map[uint]bool{}
	for _, sale := range parsed {
		if !knownStores[sale.record.StoreID] {
			fail(sale.line, fmt.Sprintf("store %d does not exist", sale.record.StoreID))
			continue
		}
		if sale.sku != "" {
			id, ok := productIDs[sale.sku]
			if !ok {
				fail(sale.line, fmt.Sprintf("product sku %q does not exist", sale.sku))
				continue
			}
			sale.record.ProductID = &id
		}
		records = append(records, sale.record)
		touched[sale.record.StoreID] = true
	}

	if err := s.salesRepo.CreateBatch(ctx, records, ImportBatchSize); err != nil {
		log.Error("Sales import failed while inserting", err, map[string]interface{}{
			"rows": len(records),
		})
		return nil, err
	}

	sort.SliceStable(result.Errors, func(i, j int) bool {
		return result.Errors[i].Row < result.Errors[j].Row
	})
	result.Imported = len(records)
	result.Failed = len(result.Errors)

	for storeID := range touched {
		s.invalidate(ctx, storeID)
	}

	log.Info("Sales import finished", map[string]interface{}{
		"batch_id": result.BatchID,
		"imported": result.Imported,
		"failed":   result.Failed,
	})
	return result, nil
}

// readImportRows returns the header and the non-blank data rows of a CSV or XLSX file.
func readImportRows(r io.Reader, filename string) ([]string, []importRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readCSVRows(r)
	case ".xlsx":
		return readXLSXRows(r)
	default:
		return nil, nil, ErrUnsupportedImport
	}
}

func readCSVRows(r io.Reader) ([]string, []importRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrImportEmpty
		}
		return nil, nil, apperrors.Validation(apperrors.SalesImportInvalid, "could not read csv: "+err.Error())
	}

	var rows []importRow
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, apperrors.Validation(apperrors.SalesImportInvalid, "could not read csv: "+err.Error())
		}
		line, _ := reader.FieldPos(0)
		if blankRow(cells) {
			continue
		}
		rows = append(rows, importRow{line: line, cells: cells})
	}
	return header, rows, nil
}

func readXLSXRows(r io.Reader) ([]string, []importRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, apperrors.Validation(apperrors.SalesImportInvalid, "could not open xlsx: "+err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrImportEmpty
	}
	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, apperrors.Validation(apperrors.SalesImportInvalid, "could not read xlsx: "+err.Error())
	}
	if len(all) == 0 {
		return nil, nil, ErrImportEmpty
	}

	var rows []importRow
	for i, cells := range all[1:] {
		if blankRow(cells) {
			continue
		}
		rows = append(rows, importRow{line: i + 2, cells: cells})
	}
	return all[0], rows, nil
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func mapImportHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, col := range requiredImportColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.Validation(apperrors.SalesImportInvalid, "import file is missing required columns: "+strings.Join(missing, ", "))
	}
	return columns, nil
}

func cell(row importRow, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row.cells) {
		return ""
	}
	return strings.TrimSpace(row.cells[idx])
}

func parseImportRow(row importRow, columns map[string]int) (parsedSale, error) {
	sale := parsedSale{line: row.line}

	storeID, err := strconv.ParseUint(cell(row, columns, "store_id"), 10, 64)
	if err != nil || storeID == 0 {
		return sale, fmt.Errorf("invalid store_id %q", cell(row, columns, "store_id"))
	}

	date, err := parseSaleDate(cell(row, columns, "sale_date"))
	if err != nil {
		return sale, err
	}

	amountRaw := strings.ReplaceAll(cell(row, columns, "sales_amount"), ",", "")
	amount, err := decimal.NewFromString(amountRaw)
	if err != nil {
		return sale, fmt.Errorf("invalid sales_amount %q", amountRaw)
	}
	if amount.IsNegative() {
		return sale, errors.New("sales_amount must not be negative")
	}

	customers, err := parseCount(cell(row, columns, "customer_count"), "customer_count")
	if err != nil {
		return sale, err
	}
	items, err := parseCount(cell(row, columns, "items_sold"), "items_sold")
	if err != nil {
		return sale, err
	}

	sale.record = model.SalesRecord{
		StoreID:       uint(storeID),
		SaleDate:      date,
		SalesAmount:   amount.Round(2),
		CustomerCount: customers,
		ItemsSold:     items,
		ExternalRef:   cell(row, columns, "external_ref"),
	}
	sale.sku = normalizeSKU(cell(row, columns, "product_sku"))
	return sale, nil
}

func parseSaleDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("sale_date is required")
	}
	for _, layout := range saleDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return normalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid sale_date %q", raw)
}

func parseCount(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", field, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return n, nil
}
