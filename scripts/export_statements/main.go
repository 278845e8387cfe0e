// Exports a user's point statement to an .xlsx workbook for support and
// accounting reviews.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/toothpick/loyalty/internal/models"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if len(os.Args) < 3 {
		log.Fatal("usage: export_statements <user-id> <output.xlsx>")
	}
	userID, err := strconv.ParseUint(os.Args[1], 10, 32)
	if err != nil {
		log.Fatal("invalid user id:", err)
	}
	outPath := os.Args[2]

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"), os.Getenv("DB_PORT"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	var entries []models.LedgerEntry
	if err := db.Where("user_id = ?", uint(userID)).Order("created_at ASC").Find(&entries).Error; err != nil {
		log.Fatal("failed to load ledger entries:", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Statement"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Entry", "Date", "Reason", "Points", "Running Balance", "Source", "Description"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	var running int64
	for i, e := range entries {
		running += e.Points
		source := ""
		if e.SourceRef != nil {
			source = *e.SourceRef
		}
		values := []interface{}{
			e.ID,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Reason,
			e.Points,
			running,
			source,
			e.Description,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.SaveAs(outPath); err != nil {
		log.Fatal("failed to save workbook:", err)
	}

	fmt.Printf("Exported %d entries for user %d to %s (final balance %d)\n",
		len(entries), userID, outPath, running)
}
