package workflow

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"bitbucket.org/mmdatafocus/fieldsales_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The allocation engine. Two entry modes, one shared posting routine:
//
//   - ItemToEmployees: one item, many (employee, qty) pairs. One node per
//     employee, each with its own assignment number, because goods-receipt
//     (LR) happens per recipient downstream.
//   - EmployeeToItems: one employee, many (item, qty) pairs. One node per
//     item, all sharing a single assignment number so one LR update applies
//     uniformly to the batch.
//
// Admin-originated allocations draw from central stock (StockItem.Issued);
// delegations draw from the assigner's own previously received quantity and
// never touch the catalog — stock leaves the central pool exactly once.

type NewAllocation struct {
	Mode models.AllocationMode `json:"mode" binding:"required"`

	// ItemToEmployees
	Item      *models.StockItemKey `json:"item"`
	Employees []NewEmployeeQty     `json:"employees"`

	// EmployeeToItems
	EmployeeCode string       `json:"employee_code"`
	Items        []NewItemQty `json:"items"`

	// Optional override; suggested from the assigner/recipient roles when blank.
	Purpose models.Purpose `json:"purpose"`
}

type NewEmployeeQty struct {
	EmployeeCode string          `json:"employee_code" binding:"required"`
	Qty          decimal.Decimal `json:"qty"`
}

type NewItemQty struct {
	Item models.StockItemKey `json:"item" binding:"required"`
	Qty  decimal.Decimal     `json:"qty"`
}

type AllocationResult struct {
	AssignmentNos []string                 `json:"assignment_nos"`
	Nodes         []*models.AssignmentNode `json:"nodes"`
}

// nodeSpec is one node to be posted, already normalized across both modes.
type nodeSpec struct {
	assignmentNo string
	item         models.StockItemKey
	empCode      string
	qty          decimal.Decimal
}

// SuggestPurpose reproduces the admin UI default: an administrator issuing
// exclusively to branch managers is splitting stock across their team
// (TeamBifurcation); any other recipient mix is field marketing material.
func SuggestPurpose(assignerIsAdmin bool, recipientRoles []models.EmployeeRole) models.Purpose {
	if !assignerIsAdmin || len(recipientRoles) == 0 {
		return models.PurposeProjectMarketing
	}
	for _, role := range recipientRoles {
		if role != models.RoleBranchManager {
			return models.PurposeProjectMarketing
		}
	}
	return models.PurposeTeamBifurcation
}

func normalize(input *NewAllocation) ([]nodeSpec, []string, error) {
	var specs []nodeSpec
	var recipients []string

	switch input.Mode {
	case models.ModeItemToEmployees:
		if input.Item == nil || len(input.Employees) == 0 {
			return nil, nil, errors.New("item and employees are required for ItemToEmployees")
		}
		for _, e := range input.Employees {
			if !utils.IsPositive(e.Qty) {
				return nil, nil, utils.ErrorInvalidQuantity
			}
			specs = append(specs, nodeSpec{
				assignmentNo: uuid.NewString(),
				item:         *input.Item,
				empCode:      e.EmployeeCode,
				qty:          e.Qty,
			})
			recipients = append(recipients, e.EmployeeCode)
		}
	case models.ModeEmployeeToItems:
		if input.EmployeeCode == "" || len(input.Items) == 0 {
			return nil, nil, errors.New("employee_code and items are required for EmployeeToItems")
		}
		batchNo := uuid.NewString()
		for _, it := range input.Items {
			if !utils.IsPositive(it.Qty) {
				return nil, nil, utils.ErrorInvalidQuantity
			}
			specs = append(specs, nodeSpec{
				assignmentNo: batchNo,
				item:         it.Item,
				empCode:      input.EmployeeCode,
				qty:          it.Qty,
			})
		}
		recipients = append(recipients, input.EmployeeCode)
	default:
		return nil, nil, errors.New("invalid allocation mode")
	}
	return specs, recipients, nil
}

// CreateAllocation validates and posts one allocation batch. All reservations
// and node writes run in a single transaction: if any line fails, every
// reservation made in this call is rolled back (all-or-nothing).
func CreateAllocation(ctx context.Context, input *NewAllocation) (*AllocationResult, error) {

	logger := config.GetLogger()

	assignerCode, ok := utils.GetEmpCodeFromContext(ctx)
	if !ok || assignerCode == "" {
		return nil, errors.New("assigner identity is required")
	}
	isAdmin, _ := utils.GetIsAdminFromContext(ctx)

	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	assigner, err := models.GetEmployeeByCode(ctx, assignerCode)
	if err != nil {
		return nil, err
	}

	specs, recipientCodes, err := normalize(input)
	if err != nil {
		return nil, err
	}

	recipients, err := models.GetEmployeesByCodes(ctx, recipientCodes)
	if err != nil {
		return nil, err
	}

	// Items must exist before posting starts; reservation reports only
	// balance problems from here on.
	for _, spec := range specs {
		err := utils.ValidateResourceWhere[models.StockItem](ctx,
			"name = ? AND year = ? AND lot = ?", spec.item.Name, spec.item.Year, spec.item.Lot)
		if err != nil {
			return nil, utils.ErrorUnknownItem
		}
	}

	purpose := input.Purpose
	if purpose == "" {
		roles := make([]models.EmployeeRole, 0, len(recipients))
		for _, r := range recipients {
			roles = append(roles, r.Role)
		}
		purpose = SuggestPurpose(isAdmin, roles)
	}

	// Serialize posting across instances when redis is configured; the
	// conditional reservation UPDATE stays the correctness guarantee.
	lock, err := AcquirePostingLock(ctx)
	if err != nil {
		return nil, err
	}
	defer ReleasePostingLock(lock)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, utils.ErrorStorageUnavailable
	}

	result := AllocationResult{}
	seenNos := make(map[string]bool)

	for _, spec := range specs {
		recipient := recipients[spec.empCode]

		var parentID *int
		if isAdmin {
			if _, err := models.ReserveStock(tx, spec.item, spec.qty); err != nil {
				tx.Rollback()
				return nil, err
			}
		} else {
			source, line, remaining, err := models.FindReceivingNode(tx, assignerCode, spec.item, spec.qty)
			if err != nil {
				tx.Rollback()
				return nil, err
			}
			if source == nil {
				tx.Rollback()
				return nil, &utils.InsufficientStockError{
					ItemName:  spec.item.Name,
					Year:      spec.item.Year,
					Lot:       spec.item.Lot,
					Requested: spec.qty,
					Balance:   remaining,
				}
			}
			// Conditional claim; a concurrent delegation or usage that won the
			// race makes this fail rather than overcommit the receipt.
			if err := models.ClaimDelegation(tx, line.ID, spec.qty); err != nil {
				tx.Rollback()
				return nil, &utils.InsufficientStockError{
					ItemName:  spec.item.Name,
					Year:      spec.item.Year,
					Lot:       spec.item.Lot,
					Requested: spec.qty,
					Balance:   remaining,
				}
			}
			parentID = &source.ID
		}

		node := models.AssignmentNode{
			AssignmentNo:       spec.assignmentNo,
			ParentID:           parentID,
			ItemName:           spec.item.Name,
			ItemYear:           spec.item.Year,
			ItemLot:            spec.item.Lot,
			Purpose:            purpose,
			AssignedByCode:     assigner.EmpCode,
			AssignedByName:     assigner.Name,
			AssignedByRole:     assigner.Role,
			Region:             assigner.Region,
			DispatchState:      models.DispatchStateCreated,
			VisibleToRecipient: utils.NewFalse(),
			Lines: []models.AllocationLine{
				{
					EmployeeCode: recipient.EmpCode,
					EmployeeName: recipient.Name,
					QtyReceived:  spec.qty,
					UsedQty:      decimal.Zero,
				},
			},
		}
		if err := tx.Create(&node).Error; err != nil {
			config.LogError(logger, "allocationWorkflow.go", "CreateAllocation", "create node", spec, err)
			tx.Rollback()
			return nil, utils.ErrorStorageUnavailable
		}

		if err := models.PublishEvent(ctx, tx, models.OutboxEventAllocationCreated, &node, recipient.EmpCode, &node); err != nil {
			config.LogError(logger, "allocationWorkflow.go", "CreateAllocation", "publish event", node.AssignmentNo, err)
			tx.Rollback()
			return nil, utils.ErrorStorageUnavailable
		}

		result.Nodes = append(result.Nodes, &node)
		if !seenNos[spec.assignmentNo] {
			seenNos[spec.assignmentNo] = true
			result.AssignmentNos = append(result.AssignmentNos, spec.assignmentNo)
		}
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "allocationWorkflow.go", "CreateAllocation", "commit", nil, err)
		return nil, utils.ErrorStorageUnavailable
	}

	for _, spec := range specs {
		models.InvalidateOrgSummaryCache(spec.item.Year, spec.item.Lot)
	}
	return &result, nil
}
