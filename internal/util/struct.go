package util

import (
	"fmt"
	"reflect"
	"strings"
)

// IsStructInitialized returns an error listing every exported field of s
// that still holds its zero value. Fields tagged `optional:"true"` are
// skipped.
func IsStructInitialized(s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return fmt.Errorf("struct is nil")
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return fmt.Errorf("expected a struct, got %s", v.Kind())
	}

	var uninitialized []string
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Tag.Get("optional") == "true" {
			continue
		}

		if v.Field(i).IsZero() {
			uninitialized = append(uninitialized, field.Name)
		}
	}

	if len(uninitialized) > 0 {
		return fmt.Errorf("uninitialized fields: %s", strings.Join(uninitialized, ", "))
	}

	return nil
}
