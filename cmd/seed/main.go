package main

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/tapreview/tapreview-backend/config"
	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

// Imports a manufacturing run from the factory's xlsx sheet.
//
//	go run cmd/seed/main.go tags <file.xlsx>   columns: tag_type, tag_id
//	go run cmd/seed/main.go pairs <file.xlsx>  columns: qr_id, nfc_id, notes

var (
	qrIDPattern   = regexp.MustCompile(`^QR-[0-9A-F]{8}$`)
	nfcIDPattern  = regexp.MustCompile(`^NFC-[0-9A-F]{8}$`)
	pairIDPattern = regexp.MustCompile(`^PAIR-[0-9A-F]{8}$`)
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: go run cmd/seed/main.go <tags|pairs> <xlsx_file_path>")
	}
	mode := os.Args[1]
	filePath := os.Args[2]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	rows, err := readSheet(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	switch mode {
	case "tags":
		importTags(rows)
	case "pairs":
		importPairs(rows)
	default:
		log.Fatalf("Unknown mode %q, expected tags or pairs", mode)
	}
}

func readSheet(filePath string) ([][]string, error) {
	fmt.Printf("Reading XLSX file: %s\n", filePath)

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}
	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows found in XLSX file")
	}
	return rows, nil
}

func confirm(count int, what string) bool {
	fmt.Printf("Total %s to import: %d\n", what, count)
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var answer string
	fmt.Scanln(&answer)
	return answer == "yes" || answer == "y"
}

func importTags(rows [][]string) {
	tagRepo := repository.NewTagRepository(db.GetDB())

	var tags []model.Tag
	seen := make(map[string]bool)
	skipped := 0

	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 2 {
			skipped++
			continue
		}

		tagType := model.TagType(strings.ToLower(strings.TrimSpace(row[0])))
		tagID := strings.ToUpper(strings.TrimSpace(row[1]))

		if !tagType.Valid() {
			skipped++
			continue
		}
		valid := (tagType == model.TagTypeQR && qrIDPattern.MatchString(tagID)) ||
			(tagType == model.TagTypeNFC && nfcIDPattern.MatchString(tagID))
		if !valid || seen[tagID] {
			skipped++
			continue
		}
		seen[tagID] = true

		tags = append(tags, model.Tag{
			TagID:   tagID,
			TagType: tagType,
			Status:  model.TagStatusInactive,
		})
	}

	fmt.Printf("Valid tags: %d, skipped rows: %d\n", len(tags), skipped)
	if !confirm(len(tags), "tags") {
		fmt.Println("Import cancelled.")
		return
	}

	if err := tagRepo.BulkCreate(tags); err != nil {
		log.Fatal("Failed to bulk create tags:", err)
	}
	fmt.Printf("Import completed: %d tags\n", len(tags))
}

func importPairs(rows [][]string) {
	pairRepo := repository.NewTagPairRepository(db.GetDB())

	var pairs []model.TagPair
	seen := make(map[string]bool)
	skipped := 0

	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 2 {
			skipped++
			continue
		}

		qrID := strings.ToUpper(strings.TrimSpace(row[0]))
		nfcID := strings.ToUpper(strings.TrimSpace(row[1]))

		if !qrIDPattern.MatchString(qrID) || !nfcIDPattern.MatchString(nfcID) {
			skipped++
			continue
		}
		if seen[qrID] || seen[nfcID] {
			skipped++
			continue
		}
		seen[qrID] = true
		seen[nfcID] = true

		// The factory sheet carries no pair id; derive one from the QR
		// component so re-imports are idempotent at the unique index.
		pairID := "PAIR-" + strings.TrimPrefix(qrID, "QR-")
		if !pairIDPattern.MatchString(pairID) {
			skipped++
			continue
		}

		pair := model.TagPair{
			PairID: pairID,
			QRID:   qrID,
			NFCID:  nfcID,
			Status: model.TagPairStatusUnassigned,
		}
		if len(row) > 2 {
			if notes := strings.TrimSpace(row[2]); notes != "" {
				pair.Notes = &notes
			}
		}
		pairs = append(pairs, pair)
	}

	fmt.Printf("Valid pairs: %d, skipped rows: %d\n", len(pairs), skipped)
	if !confirm(len(pairs), "pairs") {
		fmt.Println("Import cancelled.")
		return
	}

	if err := pairRepo.BulkCreate(pairs); err != nil {
		log.Fatal("Failed to bulk create pairs:", err)
	}
	fmt.Printf("Import completed: %d pairs\n", len(pairs))
}
