// Imports reward catalog items from an .xlsx workbook.
// Columns: Title | Description | Cost | Type | Category | Roles (comma separated) | Quantity (blank = unlimited) | Featured (yes/no)
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

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

	if len(os.Args) < 2 {
		log.Fatal("usage: import_rewards <workbook.xlsx>")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"), os.Getenv("DB_PORT"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	f, err := excelize.OpenFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	totalImported := 0

	for _, sheetName := range f.GetSheetList() {
		fmt.Printf("Importing sheet: %s\n", sheetName)
		rows, err := f.GetRows(sheetName)
		if err != nil {
			fmt.Printf("Error reading sheet %s: %v\n", sheetName, err)
			continue
		}

		for i, row := range rows {
			if i == 0 || len(row) < 4 { // Skip header or invalid rows
				continue
			}

			cost, err := strconv.ParseInt(strings.TrimSpace(row[2]), 10, 64)
			if err != nil || cost <= 0 {
				fmt.Printf("Invalid cost %q in row %d, skipping\n", row[2], i+1)
				continue
			}

			item := models.RewardItem{
				Title:       strings.TrimSpace(row[0]),
				Description: strings.TrimSpace(row[1]),
				Cost:        cost,
				Type:        strings.ToLower(strings.TrimSpace(row[3])),
				Category:    "general",
				Available:   true,
			}
			if item.Title == "" {
				continue
			}

			if len(row) > 4 && strings.TrimSpace(row[4]) != "" {
				item.Category = strings.TrimSpace(row[4])
			}

			roles := []string{models.RoleAll}
			if len(row) > 5 && strings.TrimSpace(row[5]) != "" {
				roles = nil
				for _, role := range strings.Split(row[5], ",") {
					if r := strings.ToLower(strings.TrimSpace(role)); r != "" {
						roles = append(roles, r)
					}
				}
			}
			item.SetRoles(roles)

			if len(row) > 6 && strings.TrimSpace(row[6]) != "" {
				qty, err := strconv.ParseInt(strings.TrimSpace(row[6]), 10, 64)
				if err != nil || qty < 0 {
					fmt.Printf("Invalid quantity %q in row %d, skipping\n", row[6], i+1)
					continue
				}
				item.QuantityRemaining = &qty
			}

			if len(row) > 7 {
				item.Featured = strings.EqualFold(strings.TrimSpace(row[7]), "yes")
			}

			// Upsert by title so re-running the import refreshes the catalog
			var existing models.RewardItem
			err = db.Where("title = ?", item.Title).First(&existing).Error
			if err == nil {
				item.ID = existing.ID
				if err := db.Save(&item).Error; err != nil {
					fmt.Printf("Error updating %q: %v\n", item.Title, err)
					continue
				}
			} else if err == gorm.ErrRecordNotFound {
				if err := db.Create(&item).Error; err != nil {
					fmt.Printf("Error creating %q: %v\n", item.Title, err)
					continue
				}
			} else {
				fmt.Printf("Error looking up %q: %v\n", item.Title, err)
				continue
			}

			totalImported++
		}
	}

	fmt.Printf("Imported %d reward items\n", totalImported)
}
