package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"bitbucket.org/mmdatafocus/fieldsales_backend/utils"
)

// Per-assignment dispatch state machine:
//
//	Created → Dispatched → LRAssigned → PODSent
//
// Transitions are strictly forward; there is no reversal path. Operations
// address an assignment number and apply to every node sharing it, which is
// what makes one LR update cover a whole EmployeeToItems batch.

// DispatchAssignment submits the assignment's goods to vendor dispatch.
// TeamBifurcation stock moves inside the organization and never goes to a
// vendor. Replaying on an already-dispatched assignment is a no-op success.
func DispatchAssignment(ctx context.Context, assignmentNo string) ([]*models.AssignmentNode, error) {

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, utils.ErrorStorageUnavailable
	}

	nodes, err := models.FindNodesByAssignmentNo(tx, assignmentNo)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now()
	for _, node := range nodes {
		if node.Purpose != models.PurposeProjectMarketing {
			tx.Rollback()
			return nil, utils.ErrorPurposeNotDispatchable
		}
		if node.DispatchState.AtLeast(models.DispatchStateDispatched) {
			continue
		}
		// Guard in the WHERE clause: a concurrent writer that already moved
		// the node forward turns this into the replay no-op.
		res := tx.Model(&models.AssignmentNode{}).
			Where("id = ? AND dispatch_state = ?", node.ID, models.DispatchStateCreated).
			Updates(map[string]interface{}{
				"DispatchState": models.DispatchStateDispatched,
				"DispatchedAt":  &now,
			})
		if res.Error != nil {
			tx.Rollback()
			return nil, utils.ErrorStorageUnavailable
		}
		if res.RowsAffected > 0 {
			node.DispatchState = models.DispatchStateDispatched
			node.DispatchedAt = &now
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorStorageUnavailable
	}
	return nodes, nil
}

// AssignLRNumber records the goods-receipt number. Allowed from Created or
// Dispatched. Once set the number is immutable: replaying the same value is a
// no-op, a different value is rejected (corrections need an explicit path
// that is deliberately not modeled here).
func AssignLRNumber(ctx context.Context, assignmentNo string, lrNumber string) ([]*models.AssignmentNode, error) {

	if utils.IsBlank(lrNumber) {
		return nil, utils.ErrorLRMissing
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, utils.ErrorStorageUnavailable
	}

	nodes, err := models.FindNodesByAssignmentNo(tx, assignmentNo)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now()
	for _, node := range nodes {
		if node.LRNumber != "" {
			if node.LRNumber == lrNumber {
				continue
			}
			tx.Rollback()
			return nil, utils.ErrorLRNumberAlreadyAssigned
		}
		if node.DispatchState.AtLeast(models.DispatchStateLRAssigned) {
			tx.Rollback()
			return nil, utils.ErrorLRNumberAlreadyAssigned
		}
		// The empty-LR condition in the WHERE clause is what makes the number
		// immutable under concurrency: the losing writer affects zero rows
		// instead of overwriting the winner's value.
		res := tx.Model(&models.AssignmentNode{}).
			Where("id = ? AND (lr_number IS NULL OR lr_number = '')", node.ID).
			Where("dispatch_state IN ?", []models.DispatchState{models.DispatchStateCreated, models.DispatchStateDispatched}).
			Updates(map[string]interface{}{
				"DispatchState": models.DispatchStateLRAssigned,
				"LRNumber":      lrNumber,
				"LRAssignedAt":  &now,
			})
		if res.Error != nil {
			tx.Rollback()
			return nil, utils.ErrorStorageUnavailable
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			return nil, utils.ErrorLRNumberAlreadyAssigned
		}
		node.DispatchState = models.DispatchStateLRAssigned
		node.LRNumber = lrNumber
		node.LRAssignedAt = &now
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorStorageUnavailable
	}
	return nodes, nil
}

// SendPOD marks proof of delivery: the recipient may now see the assignment
// in their own view. Requires the LR number to be set. Replay is a no-op.
func SendPOD(ctx context.Context, assignmentNo string) ([]*models.AssignmentNode, error) {

	logger := config.GetLogger()

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, utils.ErrorStorageUnavailable
	}

	nodes, err := models.FindNodesByAssignmentNo(tx, assignmentNo)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now()
	for _, node := range nodes {
		if node.DispatchState == models.DispatchStatePODSent {
			continue
		}
		if node.LRNumber == "" || !node.DispatchState.AtLeast(models.DispatchStateLRAssigned) {
			tx.Rollback()
			return nil, utils.ErrorLRMissing
		}
		res := tx.Model(&models.AssignmentNode{}).
			Where("id = ? AND dispatch_state = ?", node.ID, models.DispatchStateLRAssigned).
			Updates(map[string]interface{}{
				"DispatchState":      models.DispatchStatePODSent,
				"VisibleToRecipient": true,
				"PODSentAt":          &now,
			})
		if res.Error != nil {
			tx.Rollback()
			return nil, utils.ErrorStorageUnavailable
		}
		if res.RowsAffected == 0 {
			// A concurrent caller sent the POD between our read and write;
			// treat like the replay case and publish nothing twice.
			node.DispatchState = models.DispatchStatePODSent
			continue
		}
		node.DispatchState = models.DispatchStatePODSent
		node.VisibleToRecipient = utils.NewTrue()
		node.PODSentAt = &now

		for _, line := range node.Lines {
			if err := models.PublishEvent(ctx, tx, models.OutboxEventPODSent, node, line.EmployeeCode, node); err != nil {
				config.LogError(logger, "dispatchWorkflow.go", "SendPOD", "publish event", node.AssignmentNo, err)
				tx.Rollback()
				return nil, utils.ErrorStorageUnavailable
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.ErrorStorageUnavailable
	}
	return nodes, nil
}
