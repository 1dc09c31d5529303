package utils

import (
	"reflect"
)

// ColumnTag is the struct tag read for column names.
var ColumnTag = "db"

// StructTagValues lists the column names of a struct in field order, for use
// as a SELECT column list.
func StructTagValues(input any) []string {
	result := make([]string, 0)
	eachColumn(input, func(column string, _ reflect.Value) {
		result = append(result, column)
	})
	return result
}

// StructToMap maps column names to field values, for use with SetMap on
// inserts and updates.
func StructToMap(input any) map[string]any {
	result := make(map[string]any)
	eachColumn(input, func(column string, value reflect.Value) {
		result[column] = value.Interface()
	})
	return result
}

// eachColumn calls fn for every exported field carrying a column tag. Fields
// tagged "-" or untagged are skipped. It panics on anything but a struct or
// a pointer to one.
func eachColumn(input any, fn func(column string, value reflect.Value)) {
	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		column := field.Tag.Get(ColumnTag)
		if column == "" || column == "-" {
			continue
		}

		fn(column, v.Field(i))
	}
}
