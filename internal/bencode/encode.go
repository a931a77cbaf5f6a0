package bencode

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Encode renders value as canonical bencode: map keys sorted lexicographically
// by their raw bytes, integers in minimal decimal form, strings as
// length-prefixed byte sequences. Canonical output is mandatory -- info-hash
// reproducibility depends on every implementation encoding the same info
// dictionary to the same bytes.
func Encode(value interface{}) ([]byte, error) {
	var buf []byte
	buf, err := appendEncoded(buf, value)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func appendEncoded(buf []byte, value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case int:
		return appendInt(buf, int64(v)), nil
	case int64:
		return appendInt(buf, v), nil
	case uint64:
		return appendInt(buf, int64(v)), nil
	case string:
		return appendString(buf, v), nil
	case []byte:
		return appendString(buf, string(v)), nil
	case []interface{}:
		return appendList(buf, v)
	case map[string]interface{}:
		return appendDict(buf, v)
	default:
		return appendReflect(buf, reflect.ValueOf(value))
	}
}

func appendInt(buf []byte, v int64) []byte {
	buf = append(buf, 'i')
	buf = strconv.AppendInt(buf, v, 10)
	return append(buf, 'e')
}

func appendString(buf []byte, v string) []byte {
	buf = strconv.AppendInt(buf, int64(len(v)), 10)
	buf = append(buf, ':')
	return append(buf, v...)
}

func appendList(buf []byte, v []interface{}) ([]byte, error) {
	buf = append(buf, 'l')
	for _, item := range v {
		var err error
		buf, err = appendEncoded(buf, item)
		if err != nil {
			return nil, err
		}
	}
	return append(buf, 'e'), nil
}

func appendDict(buf []byte, v map[string]interface{}) ([]byte, error) {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf = append(buf, 'd')
	for _, k := range keys {
		buf = appendString(buf, k)
		var err error
		buf, err = appendEncoded(buf, v[k])
		if err != nil {
			return nil, err
		}
	}
	return append(buf, 'e'), nil
}

// appendReflect supports encoding plain Go integers, strings, slices and
// string-keyed maps that weren't already normalized into the
// []interface{}/map[string]interface{} shape, for callers who'd rather build
// a response with native types. Structs are not supported and yield an error.
func appendReflect(buf []byte, v reflect.Value) ([]byte, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return appendInt(buf, v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return appendInt(buf, int64(v.Uint())), nil
	case reflect.String:
		return appendString(buf, v.String()), nil
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return appendString(buf, string(v.Bytes())), nil
		}
		items := make([]interface{}, v.Len())
		for i := 0; i < v.Len(); i++ {
			items[i] = v.Index(i).Interface()
		}
		return appendList(buf, items)
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("bencode: map keys must be strings, got %s", v.Type().Key())
		}
		dict := make(map[string]interface{}, v.Len())
		for _, key := range v.MapKeys() {
			dict[key.String()] = v.MapIndex(key).Interface()
		}
		return appendDict(buf, dict)
	default:
		return nil, fmt.Errorf("bencode: unsupported type %s", v.Type())
	}
}
