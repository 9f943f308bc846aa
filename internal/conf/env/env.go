// Package env contains a function to load configuration from environment.
package env

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// Unmarshaler can be implemented to override the unmarshaling process.
type Unmarshaler interface {
	UnmarshalEnv(prefix string, v string) error
}

func hasKeyWithPrefix(env map[string]string, prefix string) bool {
	for key := range env {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func fieldKey(f reflect.StructField) string {
	tag := strings.Split(f.Tag.Get("json"), ",")[0]
	return strings.ToUpper(tag)
}

func loadValue(env map[string]string, prefix string, v reflect.Value) error {
	if u, ok := v.Addr().Interface().(Unmarshaler); ok {
		if ev, ok2 := env[prefix]; ok2 {
			err := u.UnmarshalEnv(prefix, ev)
			if err != nil {
				return fmt.Errorf("%s: %w", prefix, err)
			}
		}
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		if ev, ok := env[prefix]; ok {
			v.SetString(ev)
		}
		return nil

	case reflect.Int:
		if ev, ok := env[prefix]; ok {
			iv, err := strconv.ParseInt(ev, 10, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", prefix, err)
			}
			v.SetInt(iv)
		}
		return nil

	case reflect.Float64:
		if ev, ok := env[prefix]; ok {
			fv, err := strconv.ParseFloat(ev, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", prefix, err)
			}
			v.SetFloat(fv)
		}
		return nil

	case reflect.Bool:
		if ev, ok := env[prefix]; ok {
			switch strings.ToLower(ev) {
			case "yes", "true":
				v.SetBool(true)

			case "no", "false":
				v.SetBool(false)

			default:
				return fmt.Errorf("%s: invalid value '%s'", prefix, ev)
			}
		}
		return nil

	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			key := fieldKey(t.Field(i))
			if key == "" || key == "-" {
				continue
			}

			err := loadValue(env, prefix+"_"+key, v.Field(i))
			if err != nil {
				return err
			}
		}
		return nil

	case reflect.Slice:
		switch {
		case v.Type().Elem().Kind() == reflect.String:
			if ev, ok := env[prefix]; ok {
				if ev == "" {
					v.Set(reflect.MakeSlice(v.Type(), 0, 0))
				} else {
					parts := strings.Split(ev, ",")
					s := reflect.MakeSlice(v.Type(), len(parts), len(parts))
					for i, p := range parts {
						s.Index(i).SetString(p)
					}
					v.Set(s)
				}
			}
			return nil

		case v.Type().Elem().Kind() == reflect.Struct:
			if ev, ok := env[prefix]; ok && ev == "" {
				v.Set(reflect.MakeSlice(v.Type(), 0, 0))
				return nil
			}

			for i := 0; ; i++ {
				itemPrefix := prefix + "_" + strconv.Itoa(i)
				if !hasKeyWithPrefix(env, itemPrefix+"_") {
					break
				}

				// existing items are patched, new items are appended
				if i >= v.Len() {
					v.Set(reflect.Append(v, reflect.New(v.Type().Elem()).Elem()))
				}

				err := loadValue(env, itemPrefix, v.Index(i))
				if err != nil {
					return err
				}
			}
			return nil
		}
	}

	return fmt.Errorf("unsupported type: %v", v.Type())
}

func loadWithEnv(env map[string]string, prefix string, v any) error {
	return loadValue(env, prefix, reflect.ValueOf(v).Elem())
}

func envToMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		tmp := strings.SplitN(kv, "=", 2)
		if len(tmp) == 2 {
			env[tmp[0]] = tmp[1]
		}
	}
	return env
}

// Load loads the configuration from the environment.
func Load(prefix string, v any) error {
	return loadWithEnv(envToMap(), prefix, v)
}
