// ledger-recheck audits the assignment forest offline against the
// conservation laws the workflows enforce online:
//
//  1. pool: issued on each stock item equals the sum of root-node line
//     quantities drawn from it, and never exceeds opening;
//  2. line: used + delegated-out never exceeds received on any line;
//  3. event: used_qty on each line equals the sum of its usage events;
//  4. counter: delegated_qty on each line equals the sum of child-node line
//     quantities its employee assigned out of that node.
//
// Exits non-zero when any breach is found, printing one line per breach.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/ledger-recheck
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"bitbucket.org/mmdatafocus/fieldsales_backend/models"
	"github.com/shopspring/decimal"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	breaches := 0
	report := func(format string, args ...interface{}) {
		breaches++
		fmt.Printf(format+"\n", args...)
	}

	var nodes []*models.AssignmentNode
	if err := db.WithContext(ctx).Preload("Lines.Events").Order("id").Find(&nodes).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to load assignment nodes: %v\n", err)
		os.Exit(1)
	}

	// delegated-out per (parent node, assigner) and root draw per pool,
	// both recomputed from scratch rather than trusted from counters.
	delegated := map[int]map[string]decimal.Decimal{}
	rootDraw := map[models.StockItemKey]decimal.Decimal{}
	for _, node := range nodes {
		lineTotal := decimal.Zero
		for _, line := range node.Lines {
			lineTotal = lineTotal.Add(line.QtyReceived)
		}
		if node.ParentID != nil {
			byAssigner := delegated[*node.ParentID]
			if byAssigner == nil {
				byAssigner = map[string]decimal.Decimal{}
				delegated[*node.ParentID] = byAssigner
			}
			byAssigner[node.AssignedByCode] = byAssigner[node.AssignedByCode].Add(lineTotal)
		} else {
			key := node.ItemKey()
			rootDraw[key] = rootDraw[key].Add(lineTotal)
		}
	}

	for _, node := range nodes {
		for _, line := range node.Lines {
			eventSum := decimal.Zero
			for _, ev := range line.Events {
				eventSum = eventSum.Add(ev.Qty)
			}
			if !eventSum.Equal(line.UsedQty) {
				report("line %d (node %d, %s): used_qty %s != event sum %s",
					line.ID, node.ID, line.EmployeeCode, line.UsedQty, eventSum)
			}
			out := delegated[node.ID][line.EmployeeCode]
			if !out.Equal(line.DelegatedQty) {
				report("line %d (node %d, %s): delegated_qty %s != child allocation sum %s",
					line.ID, node.ID, line.EmployeeCode, line.DelegatedQty, out)
			}
			if line.UsedQty.Add(out).Cmp(line.QtyReceived) > 0 {
				report("line %d (node %d, %s): used %s + delegated %s exceeds received %s",
					line.ID, node.ID, line.EmployeeCode, line.UsedQty, out, line.QtyReceived)
			}
		}
	}

	var items []*models.StockItem
	if err := db.WithContext(ctx).Order("name, year, lot").Find(&items).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to load stock items: %v\n", err)
		os.Exit(1)
	}
	for _, item := range items {
		key := models.StockItemKey{Name: item.Name, Year: item.Year, Lot: item.Lot}
		draw := rootDraw[key]
		if !draw.Equal(item.Issued) {
			report("pool %s/%d/%s: issued %s != root allocation sum %s",
				item.Name, item.Year, item.Lot, item.Issued, draw)
		}
		if item.Issued.Cmp(item.Opening) > 0 {
			report("pool %s/%d/%s: issued %s exceeds opening %s",
				item.Name, item.Year, item.Lot, item.Issued, item.Opening)
		}
		delete(rootDraw, key)
	}
	for key, draw := range rootDraw {
		report("pool %s/%d/%s: root allocations total %s but pool row is missing",
			key.Name, key.Year, key.Lot, draw)
	}

	if breaches > 0 {
		fmt.Printf("%d breach(es) found across %d nodes and %d pools\n", breaches, len(nodes), len(items))
		os.Exit(1)
	}
	fmt.Printf("ledger consistent: %d nodes, %d pools checked\n", len(nodes), len(items))
}
