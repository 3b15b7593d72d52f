package reports

import (
	"context"
	"fmt"
	"net/http"

	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"github.com/xuri/excelize/v2"
)

// Assignment-ledger excel export, consumed by the back-office dashboards.
// Read-only over the aggregator; nothing here touches the ledger.

type ledgerRow struct {
	AssignmentNo string
	ItemName     string
	Year         int
	Lot          string
	Purpose      string
	AssignedBy   string
	Recipient    string
	QtyReceived  string
	UsedQty      string
	Available    string
	State        string
	LRNumber     string
}

func flattenForest(roots []*models.AssignmentTreeNode, depth int, out []ledgerRow) []ledgerRow {
	for _, node := range roots {
		for _, line := range node.Lines {
			available := node.LineAvailable[line.ID]
			out = append(out, ledgerRow{
				AssignmentNo: node.AssignmentNo,
				ItemName:     node.ItemName,
				Year:         node.ItemYear,
				Lot:          node.ItemLot,
				Purpose:      string(node.Purpose),
				AssignedBy:   fmt.Sprintf("%s (%s)", node.AssignedByName, node.AssignedByCode),
				Recipient:    fmt.Sprintf("%s (%s)", line.EmployeeName, line.EmployeeCode),
				QtyReceived:  line.QtyReceived.String(),
				UsedQty:      line.UsedQty.String(),
				Available:    available.String(),
				State:        string(node.DispatchState),
				LRNumber:     node.LRNumber,
			})
		}
		out = flattenForest(node.Children, depth+1, out)
	}
	return out
}

func ExportAssignmentLedgerExcel(ctx context.Context, w http.ResponseWriter, filter *models.AssignmentFilter) error {

	roots, err := models.BuildAssignmentTree(ctx, filter)
	if err != nil {
		return err
	}
	rows := flattenForest(roots, 0, nil)

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	headers := []string{"AssignmentNo", "Item", "Year", "Lot", "Purpose", "AssignedBy",
		"Recipient", "QtyReceived", "UsedQty", "Available", "State", "LRNumber"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, r := range rows {
		values := []interface{}{r.AssignmentNo, r.ItemName, r.Year, r.Lot, r.Purpose,
			r.AssignedBy, r.Recipient, r.QtyReceived, r.UsedQty, r.Available, r.State, r.LRNumber}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=assignment-ledger.xlsx")
	return f.Write(w)
}
