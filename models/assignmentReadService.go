package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"github.com/shopspring/decimal"
)

// Read side of the assignment ledger. Everything in this file is a pure
// query: the forest is loaded once and aggregated in memory, indexed by
// parent id and employee code.

type AssignmentFilter struct {
	AssignmentNoContains string       `json:"assignment_no_contains" form:"assignment_no_contains"`
	EmployeeCode         string       `json:"employee_code" form:"employee_code"`
	EmployeeName         string       `json:"employee_name" form:"employee_name"`
	Purpose              Purpose      `json:"purpose" form:"purpose"`
	AssignedByRole       EmployeeRole `json:"assigned_by_role" form:"assigned_by_role"`
	ItemName             string       `json:"item_name" form:"item_name"`
	Year                 int          `json:"year" form:"year"`
	Lot                  string       `json:"lot" form:"lot"`
	DateFrom             *time.Time   `json:"date_from" form:"date_from" time_format:"2006-01-02"`
	DateTo               *time.Time   `json:"date_to" form:"date_to" time_format:"2006-01-02"`
}

// AssignmentTreeNode is a node plus its reconstructed children and, per line,
// the live available quantity (received − used − delegated from this node).
type AssignmentTreeNode struct {
	AssignmentNode
	LineAvailable map[int]decimal.Decimal `json:"line_available"`
	Children      []*AssignmentTreeNode   `json:"children"`
}

type EmployeeItemStock struct {
	ItemName     string          `json:"item_name"`
	Year         int             `json:"year"`
	Lot          string          `json:"lot"`
	Assigned     decimal.Decimal `json:"assigned"`
	Used         decimal.Decimal `json:"used"`
	DelegatedOut decimal.Decimal `json:"delegated_out"`
	Available    decimal.Decimal `json:"available"`
}

type OrgSummaryResponse struct {
	Year       int             `json:"year"`
	Lot        string          `json:"lot"`
	Production decimal.Decimal `json:"production"`
	Assigned   decimal.Decimal `json:"assigned"`
	Used       decimal.Decimal `json:"used"`
	Stock      decimal.Decimal `json:"stock"`
}

func loadForest(ctx context.Context, filter *AssignmentFilter) ([]*AssignmentNode, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Lines.Events")
	if filter != nil {
		if filter.ItemName != "" {
			dbCtx = dbCtx.Where("item_name = ?", filter.ItemName)
		}
		if filter.Year != 0 {
			dbCtx = dbCtx.Where("item_year = ?", filter.Year)
		}
		if filter.Lot != "" {
			dbCtx = dbCtx.Where("item_lot = ?", filter.Lot)
		}
		if filter.Purpose != "" {
			dbCtx = dbCtx.Where("purpose = ?", filter.Purpose)
		}
		if filter.AssignedByRole != "" {
			dbCtx = dbCtx.Where("assigned_by_role = ?", filter.AssignedByRole)
		}
		if filter.DateFrom != nil {
			dbCtx = dbCtx.Where("created_at >= ?", *filter.DateFrom)
		}
		if filter.DateTo != nil {
			dbCtx = dbCtx.Where("created_at < ?", filter.DateTo.AddDate(0, 0, 1))
		}
	}
	var nodes []*AssignmentNode
	if err := dbCtx.Order("id").Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

// BuildAssignmentTree returns the forest of matching roots with children
// attached by parent id. Node-level filters that need the whole hierarchy
// (employee, assignment number substring) keep a subtree when any node in it
// matches, so delegation context is never cut out of the view.
func BuildAssignmentTree(ctx context.Context, filter *AssignmentFilter) ([]*AssignmentTreeNode, error) {

	// Hierarchy must be complete for parent attachment, so employee/substring
	// filters are applied after the full (item/date-filtered) load.
	nodes, err := loadForest(ctx, stripNodeFilters(filter))
	if err != nil {
		return nil, err
	}

	wrapped := make(map[int]*AssignmentTreeNode, len(nodes))
	for _, node := range nodes {
		avail := make(map[int]decimal.Decimal, len(node.Lines))
		for i := range node.Lines {
			avail[node.Lines[i].ID] = node.Lines[i].Available()
		}
		wrapped[node.ID] = &AssignmentTreeNode{
			AssignmentNode: *node,
			LineAvailable:  avail,
			Children:       []*AssignmentTreeNode{},
		}
	}

	var roots []*AssignmentTreeNode
	for _, node := range nodes {
		w := wrapped[node.ID]
		if node.ParentID != nil {
			if parent, ok := wrapped[*node.ParentID]; ok {
				parent.Children = append(parent.Children, w)
				continue
			}
		}
		roots = append(roots, w)
	}

	if filter != nil && (filter.EmployeeCode != "" || filter.EmployeeName != "" || filter.AssignmentNoContains != "") {
		roots = filterForest(roots, filter)
	}

	sort.Slice(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })
	return roots, nil
}

func stripNodeFilters(filter *AssignmentFilter) *AssignmentFilter {
	if filter == nil {
		return nil
	}
	f := *filter
	f.EmployeeCode = ""
	f.EmployeeName = ""
	f.AssignmentNoContains = ""
	return &f
}

func filterForest(roots []*AssignmentTreeNode, filter *AssignmentFilter) []*AssignmentTreeNode {
	var kept []*AssignmentTreeNode
	for _, root := range roots {
		if subtreeMatches(root, filter) {
			kept = append(kept, root)
		}
	}
	return kept
}

func subtreeMatches(node *AssignmentTreeNode, filter *AssignmentFilter) bool {
	if nodeMatches(node, filter) {
		return true
	}
	for _, child := range node.Children {
		if subtreeMatches(child, filter) {
			return true
		}
	}
	return false
}

func nodeMatches(node *AssignmentTreeNode, filter *AssignmentFilter) bool {
	if filter.AssignmentNoContains != "" &&
		!strings.Contains(node.AssignmentNo, filter.AssignmentNoContains) {
		return false
	}
	if filter.EmployeeCode != "" {
		found := node.AssignedByCode == filter.EmployeeCode
		for _, line := range node.Lines {
			if line.EmployeeCode == filter.EmployeeCode {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if filter.EmployeeName != "" {
		found := strings.Contains(node.AssignedByName, filter.EmployeeName)
		for _, line := range node.Lines {
			if strings.Contains(line.EmployeeName, filter.EmployeeName) {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// GetEmployeeStock computes, per item, what the employee holds: assigned,
// used and delegatedOut summed over every line where they are the recipient.
// Delegation is resolved purely by the line counters keyed on employee code;
// display names are never matched.
func GetEmployeeStock(ctx context.Context, empCode string, filter *AssignmentFilter) ([]*EmployeeItemStock, error) {

	nodes, err := loadForest(ctx, stripNodeFilters(filter))
	if err != nil {
		return nil, err
	}

	byItem := make(map[StockItemKey]*EmployeeItemStock)
	get := func(key StockItemKey) *EmployeeItemStock {
		s, ok := byItem[key]
		if !ok {
			s = &EmployeeItemStock{ItemName: key.Name, Year: key.Year, Lot: key.Lot}
			byItem[key] = s
		}
		return s
	}

	for _, node := range nodes {
		for _, line := range node.Lines {
			if line.EmployeeCode == empCode {
				s := get(node.ItemKey())
				s.Assigned = s.Assigned.Add(line.QtyReceived)
				s.Used = s.Used.Add(line.UsedQty)
				s.DelegatedOut = s.DelegatedOut.Add(line.DelegatedQty)
			}
		}
	}

	out := make([]*EmployeeItemStock, 0, len(byItem))
	for _, s := range byItem {
		s.Available = s.Assigned.Sub(s.Used).Sub(s.DelegatedOut)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemName != out[j].ItemName {
			return out[i].ItemName < out[j].ItemName
		}
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Lot < out[j].Lot
	})
	return out, nil
}

// GetOrgSummary aggregates the catalog and the forest for one year+lot.
// Production and assigned come from the catalog counters (assigned equals
// what left central stock), used from the allocation lines. An empty forest
// yields a zeroed summary. Year is mandatory: without it, writers could not
// know which cache entry to invalidate.
func GetOrgSummary(ctx context.Context, year int, lot string) (*OrgSummaryResponse, error) {

	if year == 0 {
		return nil, errors.New("year is required for the organization summary")
	}

	cacheKey := orgSummaryCacheKey(year, lot)
	var cached OrgSummaryResponse
	if ok, _ := config.GetRedisObject(cacheKey, &cached); ok {
		return &cached, nil
	}

	items, err := GetStockItems(ctx, year, lot)
	if err != nil {
		return nil, err
	}

	summary := OrgSummaryResponse{
		Year:       year,
		Lot:        lot,
		Production: decimal.Zero,
		Assigned:   decimal.Zero,
		Used:       decimal.Zero,
		Stock:      decimal.Zero,
	}
	for _, item := range items {
		summary.Production = summary.Production.Add(item.Opening)
		summary.Assigned = summary.Assigned.Add(item.Issued)
	}

	nodes, err := loadForest(ctx, &AssignmentFilter{Year: year, Lot: lot})
	if err != nil {
		return nil, err
	}
	for _, node := range nodes {
		for _, line := range node.Lines {
			summary.Used = summary.Used.Add(line.UsedQty)
		}
	}
	summary.Stock = summary.Production.Sub(summary.Assigned)

	_ = config.SetRedisObject(cacheKey, &summary, 5*time.Minute)
	return &summary, nil
}

func orgSummaryCacheKey(year int, lot string) string {
	return fmt.Sprintf("org-summary:%d:%s", year, lot)
}

// InvalidateOrgSummaryCache drops the cached rollups after any ledger write,
// including the all-lots entry for the year.
func InvalidateOrgSummaryCache(year int, lot string) {
	_ = config.RemoveRedisKey(orgSummaryCacheKey(year, lot), orgSummaryCacheKey(year, ""))
}
