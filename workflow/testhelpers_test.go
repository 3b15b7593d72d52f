package workflow_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"bitbucket.org/mmdatafocus/fieldsales_backend/utils"
	"github.com/shopspring/decimal"
)

var setupOnce sync.Once

func setupTestDB(t *testing.T) {
	t.Helper()
	setupOnce.Do(func() {
		config.ConnectTestDatabase()
		models.MigrateTable()
	})
	if config.GetDB() == nil {
		t.Fatal("test database not initialized")
	}
}

func contextFor(emp *models.Employee) context.Context {
	ctx := context.Background()
	ctx = utils.SetEmpCodeInContext(ctx, emp.EmpCode)
	ctx = utils.SetEmpNameInContext(ctx, emp.Name)
	ctx = utils.SetRoleInContext(ctx, string(emp.Role))
	ctx = utils.SetIsAdminInContext(ctx, emp.Role == models.RoleAdmin)
	return ctx
}

func seedEmployee(t *testing.T, empCode, name string, role models.EmployeeRole) *models.Employee {
	t.Helper()
	emp := models.Employee{EmpCode: empCode, Name: name, Role: role, Region: "South"}
	if err := config.GetDB().Create(&emp).Error; err != nil {
		t.Fatalf("seed employee %s: %v", empCode, err)
	}
	return &emp
}

func seedPool(t *testing.T, admin *models.Employee, name string, year int, lot string, opening int64) models.StockItemKey {
	t.Helper()
	_, err := models.UpsertStockItem(contextFor(admin), &models.NewStockItem{
		Name:    name,
		Year:    year,
		Lot:     lot,
		Opening: decimal.NewFromInt(opening),
	})
	if err != nil {
		t.Fatalf("seed pool %s: %v", name, err)
	}
	return models.StockItemKey{Name: name, Year: year, Lot: lot}
}

func uniqueName(t *testing.T, prefix string) string {
	t.Helper()
	return fmt.Sprintf("%s-%s", prefix, t.Name())
}

func poolIssued(t *testing.T, key models.StockItemKey) decimal.Decimal {
	t.Helper()
	item, err := models.GetStockItem(context.Background(), key)
	if err != nil {
		t.Fatalf("GetStockItem %s: %v", key.Name, err)
	}
	return item.Issued
}
