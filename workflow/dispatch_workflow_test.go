package workflow_test

import (
	"context"
	"testing"

	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"bitbucket.org/mmdatafocus/fieldsales_backend/utils"
	"bitbucket.org/mmdatafocus/fieldsales_backend/workflow"
	"github.com/shopspring/decimal"
)

func createMarketingAssignment(t *testing.T, admin, recipient *models.Employee, key models.StockItemKey, qty int64) *workflow.AllocationResult {
	t.Helper()
	res, err := workflow.CreateAllocation(contextFor(admin), &workflow.NewAllocation{
		Mode:      models.ModeItemToEmployees,
		Item:      &key,
		Employees: []workflow.NewEmployeeQty{{EmployeeCode: recipient.EmpCode, Qty: decimal.NewFromInt(qty)}},
		Purpose:   models.PurposeProjectMarketing,
	})
	if err != nil {
		t.Fatalf("CreateAllocation: %v", err)
	}
	return res
}

func TestDispatchAssignment_TeamBifurcationRejected(t *testing.T) {
	setupTestDB(t)

	admin := seedEmployee(t, "DSP-ADM", "Dsp Admin", models.RoleAdmin)
	bm := seedEmployee(t, "DSP-BM", "Dsp BM", models.RoleBranchManager)
	key := seedPool(t, admin, uniqueName(t, "Board"), 3201, "Lot1", 20)

	res, err := workflow.CreateAllocation(contextFor(admin), &workflow.NewAllocation{
		Mode:      models.ModeItemToEmployees,
		Item:      &key,
		Employees: []workflow.NewEmployeeQty{{EmployeeCode: bm.EmpCode, Qty: decimal.NewFromInt(5)}},
		Purpose:   models.PurposeTeamBifurcation,
	})
	if err != nil {
		t.Fatalf("CreateAllocation: %v", err)
	}

	ctx := context.Background()
	if _, err := workflow.DispatchAssignment(ctx, res.AssignmentNos[0]); err != utils.ErrorPurposeNotDispatchable {
		t.Fatalf("expected ErrorPurposeNotDispatchable, got %v", err)
	}
}

func TestDispatchLifecycle_ForwardOnlyAndIdempotent(t *testing.T) {
	setupTestDB(t)

	admin := seedEmployee(t, "LIF-ADM", "Lif Admin", models.RoleAdmin)
	bm := seedEmployee(t, "LIF-BM", "Lif BM", models.RoleBranchManager)
	key := seedPool(t, admin, uniqueName(t, "Board"), 3202, "Lot1", 20)
	res := createMarketingAssignment(t, admin, bm, key, 5)
	assignmentNo := res.AssignmentNos[0]
	ctx := context.Background()

	// POD before LR is rejected.
	if _, err := workflow.SendPOD(ctx, assignmentNo); err != utils.ErrorLRMissing {
		t.Fatalf("expected ErrorLRMissing before LR assignment, got %v", err)
	}

	nodes, err := workflow.DispatchAssignment(ctx, assignmentNo)
	if err != nil {
		t.Fatalf("DispatchAssignment: %v", err)
	}
	if nodes[0].DispatchState != models.DispatchStateDispatched {
		t.Fatalf("expected Dispatched, got %s", nodes[0].DispatchState)
	}
	if nodes[0].DispatchedAt == nil {
		t.Fatal("expected DispatchedAt to be stamped")
	}

	// Replay is a no-op success.
	if _, err := workflow.DispatchAssignment(ctx, assignmentNo); err != nil {
		t.Fatalf("dispatch replay: %v", err)
	}

	if _, err := workflow.AssignLRNumber(ctx, assignmentNo, "  "); err != utils.ErrorLRMissing {
		t.Fatalf("expected ErrorLRMissing for blank LR, got %v", err)
	}

	nodes, err = workflow.AssignLRNumber(ctx, assignmentNo, "LR-9001")
	if err != nil {
		t.Fatalf("AssignLRNumber: %v", err)
	}
	if nodes[0].DispatchState != models.DispatchStateLRAssigned || nodes[0].LRNumber != "LR-9001" {
		t.Fatalf("expected LRAssigned with LR-9001, got %s %q", nodes[0].DispatchState, nodes[0].LRNumber)
	}

	// Same value replays cleanly; a different value is immutable-violation.
	if _, err := workflow.AssignLRNumber(ctx, assignmentNo, "LR-9001"); err != nil {
		t.Fatalf("LR replay with same value: %v", err)
	}
	if _, err := workflow.AssignLRNumber(ctx, assignmentNo, "LR-9002"); err != utils.ErrorLRNumberAlreadyAssigned {
		t.Fatalf("expected ErrorLRNumberAlreadyAssigned, got %v", err)
	}

	nodes, err = workflow.SendPOD(ctx, assignmentNo)
	if err != nil {
		t.Fatalf("SendPOD: %v", err)
	}
	if nodes[0].DispatchState != models.DispatchStatePODSent {
		t.Fatalf("expected PODSent, got %s", nodes[0].DispatchState)
	}
	if nodes[0].VisibleToRecipient == nil || !*nodes[0].VisibleToRecipient {
		t.Fatal("POD must make the assignment visible to the recipient")
	}
	if _, err := workflow.SendPOD(ctx, assignmentNo); err != nil {
		t.Fatalf("POD replay: %v", err)
	}
}

// LR assigned directly from Created (without an explicit dispatch step) is
// allowed; dispatch confirmation can arrive out of band.
func TestAssignLRNumber_FromCreated(t *testing.T) {
	setupTestDB(t)

	admin := seedEmployee(t, "LRC-ADM", "Lrc Admin", models.RoleAdmin)
	bm := seedEmployee(t, "LRC-BM", "Lrc BM", models.RoleBranchManager)
	key := seedPool(t, admin, uniqueName(t, "Board"), 3203, "Lot1", 20)
	res := createMarketingAssignment(t, admin, bm, key, 5)

	nodes, err := workflow.AssignLRNumber(context.Background(), res.AssignmentNos[0], "LR-100")
	if err != nil {
		t.Fatalf("AssignLRNumber from Created: %v", err)
	}
	if nodes[0].DispatchState != models.DispatchStateLRAssigned {
		t.Fatalf("expected LRAssigned, got %s", nodes[0].DispatchState)
	}
}

// One LR update covers every node of an EmployeeToItems batch.
func TestAssignLRNumber_CoversWholeBatch(t *testing.T) {
	setupTestDB(t)

	admin := seedEmployee(t, "BAT-ADM", "Bat Admin", models.RoleAdmin)
	bm := seedEmployee(t, "BAT-BM", "Bat BM", models.RoleBranchManager)
	keyA := seedPool(t, admin, uniqueName(t, "BoardA"), 3204, "Lot1", 20)
	keyB := seedPool(t, admin, uniqueName(t, "BoardB"), 3204, "Lot1", 20)

	res, err := workflow.CreateAllocation(contextFor(admin), &workflow.NewAllocation{
		Mode:         models.ModeEmployeeToItems,
		EmployeeCode: bm.EmpCode,
		Items: []workflow.NewItemQty{
			{Item: keyA, Qty: decimal.NewFromInt(2)},
			{Item: keyB, Qty: decimal.NewFromInt(3)},
		},
		Purpose: models.PurposeProjectMarketing,
	})
	if err != nil {
		t.Fatalf("CreateAllocation: %v", err)
	}

	nodes, err := workflow.AssignLRNumber(context.Background(), res.AssignmentNos[0], "LR-BATCH-1")
	if err != nil {
		t.Fatalf("AssignLRNumber: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected both batch nodes updated, got %d", len(nodes))
	}
	for _, node := range nodes {
		if node.LRNumber != "LR-BATCH-1" || node.DispatchState != models.DispatchStateLRAssigned {
			t.Fatalf("node %d not updated: %s %q", node.ID, node.DispatchState, node.LRNumber)
		}
	}
}

func TestDispatchAssignment_UnknownNumber(t *testing.T) {
	setupTestDB(t)

	if _, err := workflow.DispatchAssignment(context.Background(), "no-such-assignment"); err != utils.ErrorRecordNotFound {
		t.Fatalf("expected ErrorRecordNotFound, got %v", err)
	}
}
