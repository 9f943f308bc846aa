// Package jsonwrapper contains a JSON unmarshaler.
package jsonwrapper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// differences with respect to the standard package:
// - unknown fields are rejected
// - existing elements of slices are never reused
// - slices cannot be set to nil

func prepare(v reflect.Value, raw any, path string) error {
	switch v.Kind() {
	case reflect.Slice:
		if raw == nil {
			if path == "" {
				return fmt.Errorf("cannot set slice to nil")
			}
			return fmt.Errorf("cannot set slice '%s' to nil", path)
		}

		if !v.IsNil() {
			v.Set(reflect.Zero(v.Type()))
		}

	case reflect.Struct:
		rawMap, ok := raw.(map[string]any)
		if !ok {
			return nil
		}

		vType := v.Type()
		for i := range v.NumField() {
			key := strings.Split(vType.Field(i).Tag.Get("json"), ",")[0]
			if key == "" || key == "-" {
				continue
			}

			rawVal, ok2 := rawMap[key]
			if !ok2 {
				continue
			}

			fieldPath := key
			if path != "" {
				fieldPath = path + "." + key
			}

			err := prepare(v.Field(i), rawVal, fieldPath)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// Unmarshal decodes JSON.
func Unmarshal(buf []byte, dest any) error {
	var raw any
	err := json.Unmarshal(buf, &raw)
	if err != nil {
		return err
	}

	err = prepare(reflect.ValueOf(dest).Elem(), raw, "")
	if err != nil {
		return err
	}

	d := json.NewDecoder(bytes.NewReader(buf))
	d.DisallowUnknownFields()
	return d.Decode(dest)
}
