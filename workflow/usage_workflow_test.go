package workflow_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"bitbucket.org/mmdatafocus/fieldsales_backend/utils"
	"bitbucket.org/mmdatafocus/fieldsales_backend/workflow"
	"github.com/shopspring/decimal"
)

func TestRecordUsage_AppendsEventsAndAccumulates(t *testing.T) {
	setupTestDB(t)

	admin := seedEmployee(t, "USE-ADM", "Use Admin", models.RoleAdmin)
	bm := seedEmployee(t, "USE-BM", "Use BM", models.RoleBranchManager)
	key := seedPool(t, admin, uniqueName(t, "Board"), 3301, "Lot1", 20)
	res := createMarketingAssignment(t, admin, bm, key, 10)
	nodeID := res.Nodes[0].ID
	ctx := context.Background()

	line, err := workflow.RecordUsage(ctx, nodeID, &workflow.NewUsage{
		EmployeeCode: bm.EmpCode, ReferenceId: "PRJ-1", Qty: decimal.NewFromInt(3),
	})
	if err != nil {
		t.Fatalf("RecordUsage(3): %v", err)
	}
	if !line.UsedQty.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected used 3, got %s", line.UsedQty)
	}

	line, err = workflow.RecordUsage(ctx, nodeID, &workflow.NewUsage{
		EmployeeCode: bm.EmpCode, ReferenceId: "PRJ-2", Qty: decimal.NewFromInt(4),
	})
	if err != nil {
		t.Fatalf("RecordUsage(4): %v", err)
	}
	if !line.UsedQty.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected used 7, got %s", line.UsedQty)
	}

	var events []models.UsageEvent
	if err := config.GetDB().Where("line_id = ?", line.ID).Order("id").Find(&events).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 usage events, got %d", len(events))
	}
	total := decimal.Zero
	for _, ev := range events {
		total = total.Add(ev.Qty)
	}
	if !total.Equal(line.UsedQty) {
		t.Fatalf("event sum %s must equal used_qty %s", total, line.UsedQty)
	}
}

func TestRecordUsage_GuardsAvailableQuantity(t *testing.T) {
	setupTestDB(t)

	admin := seedEmployee(t, "GRD-ADM", "Grd Admin", models.RoleAdmin)
	bm := seedEmployee(t, "GRD-BM", "Grd BM", models.RoleBranchManager)
	am := seedEmployee(t, "GRD-AM", "Grd AM", models.RoleAreaManager)
	key := seedPool(t, admin, uniqueName(t, "Board"), 3302, "Lot1", 20)
	res := createMarketingAssignment(t, admin, bm, key, 10)
	nodeID := res.Nodes[0].ID
	ctx := context.Background()

	// Delegate 4 out of the node, leaving 6 consumable.
	_, err := workflow.CreateAllocation(contextFor(bm), &workflow.NewAllocation{
		Mode:      models.ModeItemToEmployees,
		Item:      &key,
		Employees: []workflow.NewEmployeeQty{{EmployeeCode: am.EmpCode, Qty: decimal.NewFromInt(4)}},
	})
	if err != nil {
		t.Fatalf("delegation: %v", err)
	}

	_, err = workflow.RecordUsage(ctx, nodeID, &workflow.NewUsage{
		EmployeeCode: bm.EmpCode, ReferenceId: "PRJ-OVER", Qty: decimal.NewFromInt(7),
	})
	if err != utils.ErrorUsageExceedsAvailable {
		t.Fatalf("expected ErrorUsageExceedsAvailable, got %v", err)
	}

	// Exactly the remainder is fine.
	line, err := workflow.RecordUsage(ctx, nodeID, &workflow.NewUsage{
		EmployeeCode: bm.EmpCode, ReferenceId: "PRJ-FIT", Qty: decimal.NewFromInt(6),
	})
	if err != nil {
		t.Fatalf("RecordUsage(6): %v", err)
	}
	if !line.UsedQty.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("expected used 6, got %s", line.UsedQty)
	}

	// Nothing left now.
	_, err = workflow.RecordUsage(ctx, nodeID, &workflow.NewUsage{
		EmployeeCode: bm.EmpCode, ReferenceId: "PRJ-MORE", Qty: decimal.NewFromInt(1),
	})
	if err != utils.ErrorUsageExceedsAvailable {
		t.Fatalf("expected ErrorUsageExceedsAvailable on exhausted line, got %v", err)
	}
}

// Two recordings of 4 racing over a 6-qty line: the guard in the UPDATE's
// WHERE clause must let exactly one through, and because the increment is
// relative the counter always equals the event sum afterwards.
func TestRecordUsage_ConcurrentNeverExceedsReceived(t *testing.T) {
	setupTestDB(t)

	admin := seedEmployee(t, "CUS-ADM", "Cus Admin", models.RoleAdmin)
	bm := seedEmployee(t, "CUS-BM", "Cus BM", models.RoleBranchManager)
	key := seedPool(t, admin, uniqueName(t, "Board"), 3304, "Lot1", 20)
	res := createMarketingAssignment(t, admin, bm, key, 6)
	nodeID := res.Nodes[0].ID
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := workflow.RecordUsage(ctx, nodeID, &workflow.NewUsage{
				EmployeeCode: bm.EmpCode,
				ReferenceId:  fmt.Sprintf("PRJ-RACE-%d", i),
				Qty:          decimal.NewFromInt(4),
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else if err != utils.ErrorUsageExceedsAvailable {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one recording to succeed, got %d", succeeded)
	}

	var line models.AllocationLine
	if err := config.GetDB().Preload("Events").Where("node_id = ?", nodeID).First(&line).Error; err != nil {
		t.Fatalf("reload line: %v", err)
	}
	if !line.UsedQty.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("expected used_qty 4, got %s", line.UsedQty)
	}
	total := decimal.Zero
	for _, ev := range line.Events {
		total = total.Add(ev.Qty)
	}
	if !total.Equal(line.UsedQty) {
		t.Fatalf("used_qty %s must equal event sum %s", line.UsedQty, total)
	}
}

func TestRecordUsage_Validation(t *testing.T) {
	setupTestDB(t)

	admin := seedEmployee(t, "UVL-ADM", "Uvl Admin", models.RoleAdmin)
	bm := seedEmployee(t, "UVL-BM", "Uvl BM", models.RoleBranchManager)
	key := seedPool(t, admin, uniqueName(t, "Board"), 3303, "Lot1", 20)
	res := createMarketingAssignment(t, admin, bm, key, 5)
	nodeID := res.Nodes[0].ID
	ctx := context.Background()

	_, err := workflow.RecordUsage(ctx, nodeID, &workflow.NewUsage{
		EmployeeCode: bm.EmpCode, ReferenceId: "PRJ-Z", Qty: decimal.Zero,
	})
	if err != utils.ErrorInvalidQuantity {
		t.Fatalf("expected ErrorInvalidQuantity, got %v", err)
	}

	_, err = workflow.RecordUsage(ctx, nodeID, &workflow.NewUsage{
		EmployeeCode: "UVL-NOBODY", ReferenceId: "PRJ-X", Qty: decimal.NewFromInt(1),
	})
	if err != utils.ErrorLineNotFound {
		t.Fatalf("expected ErrorLineNotFound, got %v", err)
	}

	_, err = workflow.RecordUsage(ctx, 99999999, &workflow.NewUsage{
		EmployeeCode: bm.EmpCode, ReferenceId: "PRJ-X", Qty: decimal.NewFromInt(1),
	})
	if err != utils.ErrorRecordNotFound {
		t.Fatalf("expected ErrorRecordNotFound, got %v", err)
	}
}
