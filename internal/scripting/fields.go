package scripting

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

var durationType = reflect.TypeOf(time.Duration(0))

// fieldByName finds an exported struct field by Go name or yaml tag,
// ignoring case.
func fieldByName(v reflect.Value, name string) (reflect.Value, bool) {
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if strings.EqualFold(f.Name, name) || (tag != "" && tag != "-" && strings.EqualFold(tag, name)) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// toLua converts a scalar field. Durations are exposed in seconds.
func toLua(v reflect.Value) (lua.LValue, error) {
	if v.Type() == durationType {
		return lua.LNumber(time.Duration(v.Int()).Seconds()), nil
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return lua.LNumber(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(v.Float()), nil
	case reflect.String:
		return lua.LString(v.String()), nil
	case reflect.Bool:
		return lua.LBool(v.Bool()), nil
	}
	return lua.LNil, fmt.Errorf("field of type %s is not scriptable", v.Type())
}

func fromLua(dst reflect.Value, lv lua.LValue) error {
	if dst.Type() == durationType {
		n, ok := lv.(lua.LNumber)
		if !ok {
			return fmt.Errorf("expected number of seconds, got %s", lv.Type())
		}
		dst.SetInt(int64(float64(n) * float64(time.Second)))
		return nil
	}
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := lv.(lua.LNumber)
		if !ok {
			return fmt.Errorf("expected number, got %s", lv.Type())
		}
		dst.SetInt(int64(n))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := lv.(lua.LNumber)
		if !ok || n < 0 {
			return fmt.Errorf("expected non-negative number, got %s", lv.String())
		}
		dst.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		n, ok := lv.(lua.LNumber)
		if !ok {
			return fmt.Errorf("expected number, got %s", lv.Type())
		}
		dst.SetFloat(float64(n))
	case reflect.String:
		s, ok := lv.(lua.LString)
		if !ok {
			return fmt.Errorf("expected string, got %s", lv.Type())
		}
		dst.SetString(string(s))
	case reflect.Bool:
		dst.SetBool(lua.LVAsBool(lv))
	default:
		return fmt.Errorf("field of type %s is not scriptable", dst.Type())
	}
	return nil
}
