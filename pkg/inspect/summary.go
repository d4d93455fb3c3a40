package inspect

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vango-dev/moqwire/pkg/protocol"
)

// Summary renders a message or stream frame on one line, for logs and the
// command line:
//
//	subscribe subscribeId=1 trackAlias=2 namespace=moq/chat trackName=messages filterType=LatestGroup ...
//
// Fields are named by their JSON keys and nested structs are flattened with
// a dot. Absent optional parameters are left out.
func Summary(v any) string {
	var name string
	switch x := v.(type) {
	case protocol.Message:
		name = x.Type().String()
	case protocol.StreamFrame:
		name = x.Type().String()
	case *protocol.TrackObject:
		name = "track_object"
	case *protocol.SubgroupObject:
		name = "subgroup_object"
	default:
		return fmt.Sprintf("%v", v)
	}

	var b strings.Builder
	b.WriteString(name)
	writeFields(&b, "", reflect.Indirect(reflect.ValueOf(v)))
	return b.String()
}

var (
	bitStringType = reflect.TypeOf(protocol.BitString{})
	tupleType     = reflect.TypeOf(protocol.Tuple{})
	stringerType  = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

func writeFields(b *strings.Builder, prefix string, v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		key := prefix + jsonName(field)
		fv := v.Field(i)

		switch {
		case fv.Type() == bitStringType || fv.Type() == tupleType:
			writeField(b, key, fv.Interface().(fmt.Stringer).String())
		case fv.Kind() == reflect.Struct:
			writeFields(b, key+".", fv)
		case fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() == reflect.Uint8:
			if !fv.IsNil() {
				writeField(b, key, bytesText(fv.Bytes()))
			}
		case fv.Kind() == reflect.Slice:
			parts := make([]string, fv.Len())
			for j := range parts {
				parts[j] = scalarText(fv.Index(j))
			}
			writeField(b, key, "["+strings.Join(parts, ",")+"]")
		default:
			writeField(b, key, scalarText(fv))
		}
	}
}

func writeField(b *strings.Builder, key, value string) {
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	if value == "" || strings.ContainsAny(value, " \t\n\"") {
		value = strconv.Quote(value)
	}
	b.WriteString(value)
}

func scalarText(v reflect.Value) string {
	if v.Type().Implements(stringerType) {
		return v.Interface().(fmt.Stringer).String()
	}
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.Type().Bits() == 32 {
			// Versions read better in hex.
			return "0x" + strconv.FormatUint(v.Uint(), 16)
		}
		return strconv.FormatUint(v.Uint(), 10)
	default:
		return fmt.Sprint(v.Interface())
	}
}

func bytesText(p []byte) string {
	if utf8.Valid(p) {
		return string(p)
	}
	return fmt.Sprintf("0x%x", p)
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
		return name
	}
	return f.Name
}
