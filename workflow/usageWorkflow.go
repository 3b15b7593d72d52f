package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"bitbucket.org/mmdatafocus/fieldsales_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type NewUsage struct {
	EmployeeCode string          `json:"employee_code" binding:"required"`
	ReferenceId  string          `json:"reference_id" binding:"required"`
	Qty          decimal.Decimal `json:"qty"`
}

// RecordUsage appends a consumption event to the employee's line inside the
// given node. The append-only ledger never retracts usage; corrections would
// need a compensating event type, which is deliberately not modeled.
//
// The counter move is a single conditional UPDATE with the conservation guard
// (used + delegated + qty ≤ received) in the WHERE clause, the same shape as
// ReserveStock. Two concurrent recordings can therefore never jointly
// overdraw the line, and used_qty stays equal to the event sum because the
// increment is relative, never a rewrite from a stale read.
func RecordUsage(ctx context.Context, nodeId int, input *NewUsage) (*models.AllocationLine, error) {

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if !utils.IsPositive(input.Qty) {
		return nil, utils.ErrorInvalidQuantity
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, utils.ErrorStorageUnavailable
	}

	var node models.AssignmentNode
	if err := tx.Preload("Lines").First(&node, nodeId).Error; err != nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}

	var line *models.AllocationLine
	for i := range node.Lines {
		if node.Lines[i].EmployeeCode == input.EmployeeCode {
			line = &node.Lines[i]
			break
		}
	}
	if line == nil {
		tx.Rollback()
		return nil, utils.ErrorLineNotFound
	}

	res := tx.Model(&models.AllocationLine{}).
		Where("id = ?", line.ID).
		Where("used_qty + delegated_qty + ? <= qty_received", input.Qty).
		Update("used_qty", gorm.Expr("used_qty + ?", input.Qty))
	if res.Error != nil {
		tx.Rollback()
		return nil, utils.ErrorStorageUnavailable
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, utils.ErrorUsageExceedsAvailable
	}

	event := models.UsageEvent{
		LineID:      line.ID,
		ReferenceId: input.ReferenceId,
		Qty:         input.Qty,
	}
	if err := tx.Create(&event).Error; err != nil {
		tx.Rollback()
		return nil, utils.ErrorStorageUnavailable
	}

	var updated models.AllocationLine
	if err := tx.Preload("Events").First(&updated, line.ID).Error; err != nil {
		tx.Rollback()
		return nil, utils.ErrorStorageUnavailable
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorStorageUnavailable
	}

	models.InvalidateOrgSummaryCache(node.ItemYear, node.ItemLot)
	return &updated, nil
}
