// seed-dev loads a development fixture: a small organizational directory and
// a couple of stock pools, then prints a ready-to-use admin bearer token.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"bitbucket.org/mmdatafocus/fieldsales_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	directory := []models.Employee{
		{EmpCode: "ADM01", Name: "Head Office Admin", Role: models.RoleAdmin, Region: "HQ"},
		{EmpCode: "RM01", Name: "Ravi Menon", Role: models.RoleRegionalManager, Region: "South", ReportsTo: "ADM01"},
		{EmpCode: "BM01", Name: "Bina Mathew", Role: models.RoleBranchManager, Region: "South", Branch: "Kochi", ReportsTo: "RM01"},
		{EmpCode: "BM02", Name: "Arun Pillai", Role: models.RoleBranchManager, Region: "South", Branch: "Trivandrum", ReportsTo: "RM01"},
		{EmpCode: "AM01", Name: "Seema Nair", Role: models.RoleAreaManager, Region: "South", Branch: "Kochi", ReportsTo: "BM01"},
		{EmpCode: "EMP01", Name: "Vishnu Das", Role: models.RoleEmployee, Region: "South", Branch: "Kochi", ReportsTo: "AM01"},
	}
	for _, emp := range directory {
		err := db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "emp_code"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "role", "region", "branch", "reports_to"}),
			}).
			Create(&emp).Error
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed employee %s: %v\n", emp.EmpCode, err)
			os.Exit(1)
		}
	}

	adminCtx := utils.SetIsAdminInContext(ctx, true)
	year := time.Now().Year()
	pools := []models.NewStockItem{
		{Name: "Laminate Board A", Year: year, Lot: "Lot1", Opening: decimal.NewFromInt(500)},
		{Name: "Veneer Board B", Year: year, Lot: "Lot1", Opening: decimal.NewFromInt(200)},
	}
	for _, pool := range pools {
		if _, err := models.UpsertStockItem(adminCtx, &pool); err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed stock item %s: %v\n", pool.Name, err)
			os.Exit(1)
		}
	}

	token, err := utils.JwtGenerate("ADM01", "Head Office Admin", string(models.RoleAdmin), "HQ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate admin token: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded %d employees, %d stock pools\n", len(directory), len(pools))
	fmt.Printf("admin bearer token:\n%s\n", token)
}
