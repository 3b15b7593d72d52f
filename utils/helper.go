package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

// Validation reads the same `binding` tags gin uses so workflows called from
// commands and tests enforce identical rules.
func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

// ValidateStruct runs binding-tag validation outside of gin (workflows,
// commands, tests).
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func DereferencePtr[T any](ptr *T, fallback T) T {
	if ptr == nil {
		return fallback
	}
	return *ptr
}

func UniqueSlice[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func IsBlank(s string) bool {
	return len(strings.TrimSpace(s)) == 0
}

// IsPositive reports qty > 0. Zero and negative quantities are rejected by
// every write path.
func IsPositive(qty decimal.Decimal) bool {
	return qty.Cmp(decimal.Zero) > 0
}
