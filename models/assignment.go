package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/fieldsales_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AssignmentNode is one issuance event in the delegation tree. ParentID is an
// explicit parent pointer (nil only for admin-originated roots); the forest is
// reconstructed from it with a single indexed fetch, never by matching display
// names. Nodes are never deleted — corrections happen through further nodes.
type AssignmentNode struct {
	ID           int    `gorm:"primary_key" json:"id"`
	AssignmentNo string `gorm:"size:64;index;not null" json:"assignment_no"`
	ParentID     *int   `gorm:"index" json:"parent_id"`

	ItemName string `gorm:"size:100;index;not null" json:"item_name"`
	ItemYear int    `gorm:"index;not null" json:"item_year"`
	ItemLot  string `gorm:"size:50;index;not null" json:"item_lot"`

	Purpose        Purpose      `gorm:"size:30;not null" json:"purpose"`
	AssignedByCode string       `gorm:"size:30;index;not null" json:"assigned_by_code"`
	AssignedByName string       `gorm:"size:100;not null" json:"assigned_by_name"`
	AssignedByRole EmployeeRole `gorm:"size:30;not null" json:"assigned_by_role"`
	Region         string       `gorm:"size:100;index" json:"region"`

	DispatchState      DispatchState `gorm:"size:20;not null;default:Created" json:"dispatch_state"`
	LRNumber           string        `gorm:"size:100" json:"lr_number"`
	VisibleToRecipient *bool         `gorm:"not null;default:false" json:"visible_to_recipient"`
	DispatchedAt       *time.Time    `json:"dispatched_at"`
	LRAssignedAt       *time.Time    `json:"lr_assigned_at"`
	PODSentAt          *time.Time    `json:"pod_sent_at"`

	Lines []AllocationLine `gorm:"foreignKey:NodeID" json:"lines"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (n *AssignmentNode) ItemKey() StockItemKey {
	return StockItemKey{Name: n.ItemName, Year: n.ItemYear, Lot: n.ItemLot}
}

// AllocationLine records how much of the node's item one employee received and
// how much they have since consumed or re-issued. UsedQty always equals the
// sum of event quantities; DelegatedQty always equals the sum of child-node
// line quantities this employee assigned out of this node. Both counters are
// claimed by conditional UPDATEs guarded in the WHERE clause, so
// used + delegated can never exceed received even under concurrent writers.
type AllocationLine struct {
	ID           int             `gorm:"primary_key" json:"id"`
	NodeID       int             `gorm:"index;not null" json:"node_id"`
	EmployeeCode string          `gorm:"size:30;index;not null" json:"employee_code"`
	EmployeeName string          `gorm:"size:100;not null" json:"employee_name"`
	QtyReceived  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty_received"`
	UsedQty      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"used_qty"`
	DelegatedQty decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"delegated_qty"`
	Events       []UsageEvent    `gorm:"foreignKey:LineID" json:"usage_events"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Available is the uncommitted remainder of the line.
func (l *AllocationLine) Available() decimal.Decimal {
	return l.QtyReceived.Sub(l.UsedQty).Sub(l.DelegatedQty)
}

// UsageEvent is immutable once written. ReferenceId is an opaque foreign key
// into the customer/project module and is not validated here.
type UsageEvent struct {
	ID          int             `gorm:"primary_key" json:"id"`
	LineID      int             `gorm:"index;not null" json:"line_id"`
	ReferenceId string          `gorm:"size:100;not null" json:"reference_id"`
	Qty         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UsedAt      time.Time       `gorm:"autoCreateTime" json:"used_at"`
}

// FindNodesByAssignmentNo loads every node sharing an assignment number. An
// EmployeeToItems batch shares one number across its per-item nodes; an
// ItemToEmployees node owns its number alone.
func FindNodesByAssignmentNo(tx *gorm.DB, assignmentNo string) ([]*AssignmentNode, error) {
	var nodes []*AssignmentNode
	err := tx.Preload("Lines").
		Where("assignment_no = ?", assignmentNo).
		Order("id").
		Find(&nodes).Error
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, utils.ErrorRecordNotFound
	}
	return nodes, nil
}

func FetchNode(ctx context.Context, nodeId int) (*AssignmentNode, error) {
	return utils.FetchSingleModel[AssignmentNode](ctx, nodeId, "Lines.Events")
}

// ClaimDelegation reserves qty out of a line for re-issuance. The guard lives
// in the WHERE clause, exactly like ReserveStock's: a competing claim or
// usage that got there first makes this one affect zero rows instead of
// driving the line's available negative.
func ClaimDelegation(tx *gorm.DB, lineId int, qty decimal.Decimal) error {
	if !utils.IsPositive(qty) {
		return utils.ErrorInvalidQuantity
	}
	res := tx.Model(&AllocationLine{}).
		Where("id = ?", lineId).
		Where("used_qty + delegated_qty + ? <= qty_received", qty).
		Update("delegated_qty", gorm.Expr("delegated_qty + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrorUsageExceedsAvailable
	}
	return nil
}

// FindReceivingNode picks the node a delegation draws from: the oldest node
// where empCode received the item and still has needed quantity uncommitted
// (received − used − delegated). A delegation larger than any single
// receipt's remainder must be entered as separate delegations. The returned
// remainder is informational; ClaimDelegation re-checks it atomically.
func FindReceivingNode(tx *gorm.DB, empCode string, key StockItemKey, needed decimal.Decimal) (*AssignmentNode, *AllocationLine, decimal.Decimal, error) {

	var nodes []*AssignmentNode
	err := tx.Preload("Lines", "employee_code = ?", empCode).
		Distinct("assignment_nodes.*").
		Joins("JOIN allocation_lines ON allocation_lines.node_id = assignment_nodes.id").
		Where("allocation_lines.employee_code = ?", empCode).
		Where("assignment_nodes.item_name = ? AND assignment_nodes.item_year = ? AND assignment_nodes.item_lot = ?",
			key.Name, key.Year, key.Lot).
		Order("assignment_nodes.id").
		Find(&nodes).Error
	if err != nil {
		return nil, nil, decimal.Zero, err
	}

	best := decimal.Zero
	for _, node := range nodes {
		for i := range node.Lines {
			line := &node.Lines[i]
			remaining := line.Available()
			if remaining.Cmp(needed) >= 0 {
				return node, line, remaining, nil
			}
			if remaining.Cmp(best) > 0 {
				best = remaining
			}
		}
	}
	return nil, nil, best, nil
}
