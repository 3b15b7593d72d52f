package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"bitbucket.org/mmdatafocus/fieldsales_backend/utils"
)

// Employee mirrors the organizational directory. The directory is owned by a
// separate service; this core only reads it to validate recipients/assigners
// and to derive default purpose. Rows are never written here outside of
// seeding.
type Employee struct {
	ID        int          `gorm:"primary_key" json:"id"`
	EmpCode   string       `gorm:"size:30;uniqueIndex;not null" json:"emp_code"`
	Name      string       `gorm:"size:100;not null" json:"name"`
	Role      EmployeeRole `gorm:"size:30;not null" json:"role"`
	Region    string       `gorm:"size:100;index" json:"region"`
	Branch    string       `gorm:"size:100" json:"branch"`
	ReportsTo string       `gorm:"size:30;index" json:"reports_to"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetEmployeeByCode returns ErrorUnknownEmployee for missing codes.
func GetEmployeeByCode(ctx context.Context, empCode string) (*Employee, error) {
	db := config.GetDB()
	var emp Employee
	if err := db.WithContext(ctx).Where("emp_code = ?", empCode).First(&emp).Error; err != nil {
		return nil, utils.ErrorUnknownEmployee
	}
	return &emp, nil
}

// GetEmployeesByCodes resolves a batch of codes; any missing code fails the
// whole lookup with ErrorUnknownEmployee.
func GetEmployeesByCodes(ctx context.Context, empCodes []string) (map[string]*Employee, error) {
	codes := utils.UniqueSlice(empCodes)

	db := config.GetDB()
	var rows []*Employee
	if err := db.WithContext(ctx).Where("emp_code IN ?", codes).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) != len(codes) {
		return nil, utils.ErrorUnknownEmployee
	}
	byCode := make(map[string]*Employee, len(rows))
	for _, e := range rows {
		byCode[e.EmpCode] = e
	}
	return byCode, nil
}
