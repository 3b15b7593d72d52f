package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
)

/* DB fetching */

// fetch model from db by primary key
// (may return RecordNotFound)
func FetchSingleModel[T any](ctx context.Context, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}

// fetch all models matching condition
func FetchModelsWhere[T any](ctx context.Context, condition string, values ...interface{}) ([]*T, error) {

	db := config.GetDB()
	var results []*T
	err := db.WithContext(ctx).Where(condition, values...).Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// count records matching condition
func ResourceCountWhere[T any](ctx context.Context, condition string, values ...interface{}) (int64, error) {
	var model T
	var count int64

	db := config.GetDB()
	err := db.WithContext(ctx).Model(&model).Where(condition, values...).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// check a single record exists for condition, return RecordNotFound otherwise
func ValidateResourceWhere[T any](ctx context.Context, condition string, values ...interface{}) error {
	count, err := ResourceCountWhere[T](ctx, condition, values...)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}
	return nil
}
