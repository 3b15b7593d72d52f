package models

import (
	"log"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Employee{},
		&StockItem{},
		&AssignmentNode{}, &AllocationLine{}, &UsageEvent{},
		&EventOutboxRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
