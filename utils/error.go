package utils

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrorRecordNotFound = errors.New("record not found")

// Business-rule failures. All of these are caller-correctable; none should be
// retried by infrastructure.
var (
	ErrorInvalidQuantity         = errors.New("invalid quantity")
	ErrorUnknownEmployee         = errors.New("employee not found in directory")
	ErrorUnknownItem             = errors.New("stock item not found")
	ErrorPurposeNotDispatchable  = errors.New("purpose not dispatchable")
	ErrorLRMissing               = errors.New("lr number not set")
	ErrorLineNotFound            = errors.New("allocation line not found")
	ErrorUsageExceedsAvailable   = errors.New("usage exceeds received quantity")
	ErrorStorageUnavailable      = errors.New("storage unavailable")
	ErrorLRNumberAlreadyAssigned = errors.New("lr number already assigned")
)

// InsufficientStockError carries the live balance at the moment the
// reservation was rejected so handlers can show it to the user.
type InsufficientStockError struct {
	ItemName  string
	Year      int
	Lot       string
	Requested decimal.Decimal
	Balance   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s/%d/%s: requested %s, balance %s",
		e.ItemName, e.Year, e.Lot, e.Requested, e.Balance)
}

// IsInsufficientStock reports whether err wraps an InsufficientStockError.
func IsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var ise *InsufficientStockError
	if errors.As(err, &ise) {
		return ise, true
	}
	return nil, false
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
