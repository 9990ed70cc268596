package helper

import (
	"fmt"
	"reflect"
	"strings"
)

// ValidateStructIsPopulated checks that every field of cfg tagged
// mandatory:"yes" holds a non-zero value. The returned error lists the
// errorTxt tag of each missing field so the CLI can name the flags to supply.
func ValidateStructIsPopulated(cfg interface{}) (err error) {
	errs := make([]string, 0)
	GetStructErrorTxt4UnsetFields(cfg, &errs)
	if len(errs) > 0 {
		err = fmt.Errorf("please supply values for %v", strings.Join(errs, ", "))
	}
	return
}

// GetStructErrorTxt4UnsetFields walks the exported fields of i, recursing into
// nested structs and struct-valued maps, and appends the errorTxt tag of every
// zero-valued field tagged mandatory:"yes" to errTags.
func GetStructErrorTxt4UnsetFields(i interface{}, errTags *[]string) {
	val := reflect.ValueOf(i)
	if reflect.TypeOf(i).Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()
	for idx := 0; idx < val.NumField(); idx++ {
		f := val.Field(idx)
		firstChar := typ.Field(idx).Name[0:1]
		if firstChar != strings.ToUpper(firstChar) { // skip unexported fields; we can't Interface() them.
			continue
		}
		switch f.Type().Kind() {
		case reflect.Struct:
			GetStructErrorTxt4UnsetFields(f.Interface(), errTags)
		case reflect.Map:
			for _, k := range f.MapKeys() {
				mapVal := f.MapIndex(k)
				if mapVal.Type().Kind() == reflect.Struct && mapVal != reflect.Zero(mapVal.Type()) {
					GetStructErrorTxt4UnsetFields(mapVal.Interface(), errTags)
				}
			}
		case reflect.Slice: // slices are never mandatory.
		default:
			if f.Interface() == reflect.Zero(f.Type()).Interface() &&
				typ.Field(idx).Tag.Get("mandatory") == "yes" {
				*errTags = append(*errTags, typ.Field(idx).Tag.Get("errorTxt"))
			}
		}
	}
}
