package workflow_test

import (
	"context"
	"testing"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"bitbucket.org/mmdatafocus/fieldsales_backend/workflow"
)

// Outbox records must commit with the business write and carry the recipient.
func TestOutbox_RecordsAllocationAndPOD(t *testing.T) {
	setupTestDB(t)

	admin := seedEmployee(t, "OBX-ADM", "Obx Admin", models.RoleAdmin)
	bm := seedEmployee(t, "OBX-BM", "Obx BM", models.RoleBranchManager)
	key := seedPool(t, admin, uniqueName(t, "Board"), 3401, "Lot1", 20)
	res := createMarketingAssignment(t, admin, bm, key, 5)
	assignmentNo := res.AssignmentNos[0]
	ctx := context.Background()

	db := config.GetDB()
	var created models.EventOutboxRecord
	err := db.Where("assignment_no = ? AND event_type = ?", assignmentNo, models.OutboxEventAllocationCreated).
		First(&created).Error
	if err != nil {
		t.Fatalf("expected AllocationCreated outbox record: %v", err)
	}
	if created.RecipientCode != bm.EmpCode {
		t.Fatalf("expected recipient %s, got %s", bm.EmpCode, created.RecipientCode)
	}
	if created.IsProcessed {
		t.Fatal("fresh outbox record must be unprocessed")
	}
	if len(created.Payload) == 0 {
		t.Fatal("outbox record must carry a payload")
	}

	if _, err := workflow.AssignLRNumber(ctx, assignmentNo, "LR-OBX-1"); err != nil {
		t.Fatalf("AssignLRNumber: %v", err)
	}
	if _, err := workflow.SendPOD(ctx, assignmentNo); err != nil {
		t.Fatalf("SendPOD: %v", err)
	}

	var pod models.EventOutboxRecord
	err = db.Where("assignment_no = ? AND event_type = ?", assignmentNo, models.OutboxEventPODSent).
		First(&pod).Error
	if err != nil {
		t.Fatalf("expected PODSent outbox record: %v", err)
	}
	if pod.RecipientCode != bm.EmpCode {
		t.Fatalf("expected POD recipient %s, got %s", bm.EmpCode, pod.RecipientCode)
	}
}
