package utils

import (
	"context"
	"errors"
	"reflect"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
)

// check if id exists, scoped by property_id when given, return RecordNotFound Error
func ValidateResourceId[T any](ctx context.Context, propertyId string, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, propertyId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

// check if ALL ids exist, scoped by property_id when given, return RecordNotFound Error
func ValidateResourcesId[M any, ID comparable](ctx context.Context, propertyId string, ids []ID) error {
	unqIds := UniqueSlice(ids)

	count, err := ResourceCountWhere[M](ctx, propertyId, "id IN ?", unqIds)
	if err != nil {
		return err
	}
	if count != int64(len(unqIds)) {
		return ErrorRecordNotFound
	}

	return nil
}

func ValidateUnique[T any](ctx context.Context, propertyId string, column string, value interface{}, exceptId interface{}) error {
	var count int64
	var err error
	if reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, propertyId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, propertyId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate " + column)
	}
	return nil
}

// count records, using WHERE property_id = ? AND $condition
// property_id can be blank for unscoped models
func ResourceCountWhere[T any](ctx context.Context, propertyId string, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if propertyId != "" {
		dbCtx = dbCtx.Where("property_id = ?", propertyId)
	}
	dbCtx = dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
