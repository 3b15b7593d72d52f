package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"bitbucket.org/mmdatafocus/fieldsales_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockItem is the central pool counter for one (name, year, lot) of sample
// boards. Balance is always derived; only Opening and Issued are persisted.
// Issued is mutated exclusively by the allocation workflow and is
// monotonically non-decreasing outside a failed batch's rollback.
type StockItem struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Name      string          `gorm:"size:100;not null;uniqueIndex:idx_stock_items_key" json:"name" binding:"required"`
	Year      int             `gorm:"not null;uniqueIndex:idx_stock_items_key" json:"year" binding:"required"`
	Lot       string          `gorm:"size:50;not null;uniqueIndex:idx_stock_items_key" json:"lot" binding:"required"`
	Opening   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening"`
	Issued    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"issued"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *StockItem) Balance() decimal.Decimal {
	return s.Opening.Sub(s.Issued)
}

type StockItemKey struct {
	Name string `json:"name" binding:"required"`
	Year int    `json:"year" binding:"required"`
	Lot  string `json:"lot" binding:"required"`
}

type NewStockItem struct {
	Name    string          `json:"name" binding:"required"`
	Year    int             `json:"year" binding:"required"`
	Lot     string          `json:"lot" binding:"required"`
	Opening decimal.Decimal `json:"opening"`
}

// UpsertStockItem creates or overwrites the opening quantity of a pool.
// Admin only. Issued is never touched, and opening may not be set below what
// is already issued (that would force a negative balance).
func UpsertStockItem(ctx context.Context, input *NewStockItem) (*StockItem, error) {

	isAdmin, _ := utils.GetIsAdminFromContext(ctx)
	if !isAdmin {
		return nil, errors.New("stock items are maintained by administrators only")
	}

	if input.Opening.IsNegative() {
		return nil, utils.ErrorInvalidQuantity
	}

	db := config.GetDB()
	var item StockItem
	err := db.WithContext(ctx).
		Where("name = ? AND year = ? AND lot = ?", input.Name, input.Year, input.Lot).
		First(&item).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		item = StockItem{
			Name:    input.Name,
			Year:    input.Year,
			Lot:     input.Lot,
			Opening: input.Opening,
			Issued:  decimal.Zero,
		}
		if err := db.WithContext(ctx).Create(&item).Error; err != nil {
			return nil, err
		}
		return &item, nil
	}

	if input.Opening.Cmp(item.Issued) < 0 {
		return nil, utils.ErrorInvalidQuantity
	}
	if err := db.WithContext(ctx).Model(&item).Update("opening", input.Opening).Error; err != nil {
		return nil, err
	}
	item.Opening = input.Opening
	return &item, nil
}

func GetStockItem(ctx context.Context, key StockItemKey) (*StockItem, error) {
	db := config.GetDB()
	var item StockItem
	err := db.WithContext(ctx).
		Where("name = ? AND year = ? AND lot = ?", key.Name, key.Year, key.Lot).
		First(&item).Error
	if err != nil {
		return nil, utils.ErrorUnknownItem
	}
	return &item, nil
}

func GetStockItems(ctx context.Context, year int, lot string) ([]*StockItem, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if year != 0 {
		dbCtx = dbCtx.Where("year = ?", year)
	}
	if lot != "" {
		dbCtx = dbCtx.Where("lot = ?", lot)
	}
	var items []*StockItem
	if err := dbCtx.Order("name, year, lot").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ReserveStock atomically checks-and-increments Issued inside the caller's
// transaction. The balance guard lives in the WHERE clause so two concurrent
// reservations can never jointly overdraw the pool. Returns the balance after
// reservation; on rejection the error carries the untouched balance.
func ReserveStock(tx *gorm.DB, key StockItemKey, qty decimal.Decimal) (decimal.Decimal, error) {

	if !utils.IsPositive(qty) {
		return decimal.Zero, utils.ErrorInvalidQuantity
	}

	res := tx.Model(&StockItem{}).
		Where("name = ? AND year = ? AND lot = ?", key.Name, key.Year, key.Lot).
		Where("opening >= issued + ?", qty).
		Update("issued", gorm.Expr("issued + ?", qty))
	if res.Error != nil {
		return decimal.Zero, res.Error
	}
	if res.RowsAffected == 0 {
		var item StockItem
		if err := tx.Where("name = ? AND year = ? AND lot = ?", key.Name, key.Year, key.Lot).
			First(&item).Error; err != nil {
			return decimal.Zero, utils.ErrorUnknownItem
		}
		return item.Balance(), &utils.InsufficientStockError{
			ItemName:  key.Name,
			Year:      key.Year,
			Lot:       key.Lot,
			Requested: qty,
			Balance:   item.Balance(),
		}
	}

	var item StockItem
	if err := tx.Where("name = ? AND year = ? AND lot = ?", key.Name, key.Year, key.Lot).
		First(&item).Error; err != nil {
		return decimal.Zero, err
	}
	return item.Balance(), nil
}

// ReleaseStock is the compensating decrement for a committed reservation.
// The allocation workflow does not need it (a failed batch aborts through the
// enclosing transaction's rollback); it exists for explicit correction paths
// such as a future allocation-reversal operation.
func ReleaseStock(tx *gorm.DB, key StockItemKey, qty decimal.Decimal) error {
	if !utils.IsPositive(qty) {
		return utils.ErrorInvalidQuantity
	}
	return tx.Model(&StockItem{}).
		Where("name = ? AND year = ? AND lot = ?", key.Name, key.Year, key.Lot).
		Where("issued >= ?", qty).
		Update("issued", gorm.Expr("issued - ?", qty)).Error
}
