package gelf

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/valyala/fastjson"
)

// maxObjectDepth bounds the structured walk of object-valued properties.
const maxObjectDepth = 32

// FieldEncoder converts one property value into a Value.
//
// Recognized scalar kinds are converted directly: strings, every integer width
// and signedness, bools, floats, decimal.Decimal, time.Time, []byte (base64),
// uuid.UUID, url.URL, time.Duration, and named types whose underlying kind is
// one of the basic kinds (enumerations render as their number). Pointers to
// these are followed. Nil values are absent. An error renders as its Error
// text, and a json.RawMessage is decoded into the matching Value.
//
// Any other value is absent unless SerializeObjects is set, in which case
// structs, maps and slices are walked field by field. Nil members are omitted,
// and a reference already being walked higher up the same path is omitted
// rather than followed, so self-referencing objects terminate.
//
// A FieldEncoder is safe for concurrent use.
type FieldEncoder struct {
	SerializeObjects bool

	// TimeFormat is the layout for time.Time values. The default is
	// time.RFC3339Nano.
	TimeFormat string
}

// Encode returns the Value for v, or false if the field must be dropped.
func (e *FieldEncoder) Encode(v any) (Value, bool) {
	w := objectWalker{enc: e}
	return w.walk(reflect.ValueOf(v), 0)
}

func (e *FieldEncoder) timeFormat() string {
	if e.TimeFormat == "" {
		return defaultTimeFormat
	}
	return e.TimeFormat
}

// scalar converts rv when it is one of the recognized scalar kinds. rv must
// not be a pointer or interface.
func (e *FieldEncoder) scalar(rv reflect.Value) (Value, bool) {
	if rv.CanInterface() {
		switch x := rv.Interface().(type) {
		case time.Time:
			return StringValue(x.Format(e.timeFormat())), true
		case time.Duration:
			return StringValue(x.String()), true
		case decimal.Decimal:
			return DecimalValue(x.String()), true
		case uuid.UUID:
			return StringValue(x.String()), true
		case url.URL:
			return StringValue(x.String()), true
		case json.RawMessage:
			if x != nil {
				return rawJSONValue(x), true
			}
		}
	}

	switch rv.Kind() {
	case reflect.String:
		return StringValue(rv.String()), true
	case reflect.Bool:
		return BoolValue(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntValue(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return UintValue(rv.Uint()), true
	case reflect.Float32:
		return FloatValue(rv.Float(), 32), true
	case reflect.Float64:
		return FloatValue(rv.Float(), 64), true
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 && !rv.IsNil() {
			return StringValue(base64.StdEncoding.EncodeToString(rv.Bytes())), true
		}
	}
	return Value{}, false
}

// errorOf returns the error held by rv, or nil. Nil pointers and interfaces
// hold no error; they are absent.
func errorOf(rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil
		}
	}
	if !rv.CanInterface() {
		return nil
	}
	err, _ := rv.Interface().(error)
	return err
}

var jsonParsers fastjson.ParserPool

// rawJSONValue decodes raw into a Value. Text that does not parse is kept as
// a string.
func rawJSONValue(raw []byte) Value {
	p := jsonParsers.Get()
	defer jsonParsers.Put(p)

	jv, err := p.ParseBytes(raw)
	if err != nil {
		return StringValue(string(raw))
	}
	v, ok := fromFastJSON(jv, 0)
	if !ok {
		return StringValue(string(raw))
	}
	return v
}

func fromFastJSON(jv *fastjson.Value, depth int) (Value, bool) {
	if depth >= maxObjectDepth {
		return Value{}, false
	}
	switch jv.Type() {
	case fastjson.TypeString:
		return StringValue(string(jv.GetStringBytes())), true
	case fastjson.TypeNumber:
		if i, err := jv.Int64(); err == nil {
			return IntValue(i), true
		}
		if u, err := jv.Uint64(); err == nil {
			return UintValue(u), true
		}
		if f, err := jv.Float64(); err == nil {
			return FloatValue(f, 64), true
		}
		return StringValue(jv.String()), true
	case fastjson.TypeTrue:
		return BoolValue(true), true
	case fastjson.TypeFalse:
		return BoolValue(false), true
	case fastjson.TypeObject:
		o, _ := jv.Object()
		fields := make([]Field, 0, o.Len())
		o.Visit(func(key []byte, item *fastjson.Value) {
			if v, ok := fromFastJSON(item, depth+1); ok {
				fields = append(fields, Field{Key: string(key), Value: v})
			}
		})
		return ObjectValue(fields...), true
	case fastjson.TypeArray:
		arr, _ := jv.Array()
		items := make([]Value, 0, len(arr))
		for _, item := range arr {
			if v, ok := fromFastJSON(item, depth+1); ok {
				items = append(items, v)
			}
		}
		return ArrayValue(items...), true
	}
	// null
	return Value{}, false
}

// identity of a reference on the current walk path; the type is part of the
// key because a struct and its first field share an address.
type identity struct {
	t reflect.Type
	p uintptr
}

type objectWalker struct {
	enc  *FieldEncoder
	path map[identity]struct{}
}

// enter records a reference on the path. It reports false if the reference
// is already there, i.e. following it would loop.
func (w *objectWalker) enter(id identity) bool {
	if w.path == nil {
		w.path = make(map[identity]struct{})
	}
	if _, ok := w.path[id]; ok {
		return false
	}
	w.path[id] = struct{}{}
	return true
}

func (w *objectWalker) leave(id identity) { delete(w.path, id) }

func (w *objectWalker) walk(rv reflect.Value, depth int) (Value, bool) {
	if depth >= maxObjectDepth {
		return Value{}, false
	}

	// errors commonly implement Error on a pointer receiver, so check them
	// before the pointer is followed
	if err := errorOf(rv); err != nil {
		return StringValue(err.Error()), true
	}

	// unwrap interfaces and pointers; nil is absent
	for rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Value{}, false
		}
		if rv.Kind() == reflect.Pointer {
			id := identity{rv.Type(), rv.Pointer()}
			if !w.enter(id) {
				return Value{}, false
			}
			defer w.leave(id)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return Value{}, false
	}

	if v, ok := w.enc.scalar(rv); ok {
		return v, true
	}

	if !w.enc.SerializeObjects {
		return Value{}, false
	}

	switch rv.Kind() {
	case reflect.Struct:
		return ObjectValue(w.structFields(rv, depth)...), true

	case reflect.Map:
		if rv.IsNil() {
			return Value{}, false
		}
		id := identity{rv.Type(), rv.Pointer()}
		if !w.enter(id) {
			return Value{}, false
		}
		defer w.leave(id)
		return ObjectValue(w.mapFields(rv, depth)...), true

	case reflect.Slice:
		if rv.IsNil() {
			return Value{}, false
		}
		if rv.Len() > 0 {
			id := identity{rv.Type(), rv.Pointer()}
			if !w.enter(id) {
				return Value{}, false
			}
			defer w.leave(id)
		}
		return ArrayValue(w.items(rv, depth)...), true

	case reflect.Array:
		return ArrayValue(w.items(rv, depth)...), true
	}

	// chan, func, complex, unsafe pointers
	return Value{}, false
}

func (w *objectWalker) structFields(rv reflect.Value, depth int) []Field {
	t := rv.Type()
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() && !(sf.Anonymous && sf.Type.Kind() == reflect.Struct) {
			continue
		}
		name, skip := jsonName(sf)
		if skip {
			continue
		}

		// embedded structs without an explicit name are inlined
		if sf.Anonymous && name == "" && sf.Type.Kind() == reflect.Struct {
			fields = append(fields, w.structFields(rv.Field(i), depth+1)...)
			continue
		}
		if name == "" {
			name = sf.Name
		}

		if v, ok := w.walk(rv.Field(i), depth+1); ok {
			fields = append(fields, Field{Key: name, Value: v})
		}
	}
	return fields
}

// jsonName reads the name part of a `json` struct tag.
func jsonName(sf reflect.StructField) (name string, skip bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ = strings.Cut(tag, ",")
	return name, false
}

func (w *objectWalker) mapFields(rv reflect.Value, depth int) []Field {
	fields := make([]Field, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key, ok := mapKey(iter.Key())
		if !ok {
			continue
		}
		if v, ok := w.walk(iter.Value(), depth+1); ok {
			fields = append(fields, Field{Key: key, Value: v})
		}
	}
	slices.SortFunc(fields, func(a, b Field) int { return strings.Compare(a.Key, b.Key) })
	return fields
}

func mapKey(k reflect.Value) (string, bool) {
	switch k.Kind() {
	case reflect.String:
		return k.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10), true
	}
	return "", false
}

func (w *objectWalker) items(rv reflect.Value, depth int) []Value {
	items := make([]Value, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		if v, ok := w.walk(rv.Index(i), depth+1); ok {
			items = append(items, v)
		}
	}
	return items
}
