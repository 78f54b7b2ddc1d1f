package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/quonpass/quonpass-backend/config"
	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	"github.com/quonpass/quonpass-backend/internal/db"
	"github.com/quonpass/quonpass-backend/pkg/util"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const batchSize = 500

// storeColumns are the recognised header names; only "name" is mandatory.
var storeColumns = []string{"code", "name", "address", "phone", "email", "contact_name", "status", "description"}

func main() {
	assumeYes := flag.Bool("yes", false, "import without asking for confirmation")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Usage: go run ./cmd/seed [-yes] <stores.xlsx>")
	}
	filePath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	conn, err := db.Open(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close(conn)

	if err := db.Migrate(conn); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open file: ", err)
	}
	defer f.Close()

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	stores, skipped, err := readStoresFromXLSX(f)
	if err != nil {
		log.Fatal("Failed to read XLSX: ", err)
	}

	ctx := context.Background()
	storeRepo := repository.NewStoreRepository(conn)
	stores, existing, err := dropExisting(ctx, storeRepo, stores)
	if err != nil {
		log.Fatal("Failed to check existing stores: ", err)
	}

	fmt.Printf("Stores to import: %d (skipped rows: %d, already present: %d)\n", len(stores), skipped, existing)
	if len(stores) == 0 {
		fmt.Println("Nothing to import.")
		return
	}

	if !*assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	if err := storeRepo.BulkCreate(ctx, stores, batchSize); err != nil {
		log.Fatal("Failed to bulk create stores: ", err)
	}

	fmt.Printf("Import completed successfully! Total stores imported: %d\n", len(stores))
}

// readStoresFromXLSX parses the first sheet. Rows without a name, with an
// unknown status, or repeating an earlier code are counted as skipped.
func readStoresFromXLSX(r io.Reader) ([]model.Store, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, errors.New("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, errors.New("no data found in XLSX file")
	}

	index := map[string]int{}
	for i, cell := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(cell))] = i
	}
	if _, ok := index["name"]; !ok {
		return nil, 0, errors.New(`header row must contain a "name" column`)
	}

	cell := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var stores []model.Store
	seenCodes := map[string]bool{}
	skipped := 0

	for _, row := range rows[1:] {
		name := cell(row, "name")
		if name == "" {
			skipped++
			continue
		}

		status := model.StoreStatus(strings.ToLower(cell(row, "status")))
		if status == "" {
			status = model.StoreStatusActive
		}
		if !status.Valid() {
			skipped++
			continue
		}

		code := strings.ToUpper(cell(row, "code"))
		if code != "" {
			if seenCodes[code] {
				skipped++
				continue
			}
			seenCodes[code] = true
		}

		stores = append(stores, model.Store{
			Code:        code,
			Name:        util.StripTags(name),
			Address:     cell(row, "address"),
			Phone:       cell(row, "phone"),
			Email:       strings.ToLower(cell(row, "email")),
			ContactName: util.StripTags(cell(row, "contact_name")),
			Status:      status,
			Description: util.SanitizeDescription(cell(row, "description")),
		})
	}
	return stores, skipped, nil
}

// dropExisting removes stores whose explicit code is already taken.
func dropExisting(ctx context.Context, repo repository.StoreRepository, stores []model.Store) ([]model.Store, int, error) {
	kept := stores[:0]
	existing := 0
	for _, s := range stores {
		if s.Code != "" {
			_, err := repo.FindByCode(ctx, s.Code)
			if err == nil {
				existing++
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, err
			}
		}
		kept = append(kept, s)
	}
	return kept, existing, nil
}
