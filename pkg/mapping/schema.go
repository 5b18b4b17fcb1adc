package mapping

import (
	"encoding"
	"reflect"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// Classification is how a field is written.
type Classification uint8

const (
	Scalar Classification = iota
	NestedSingleObject
	NestedCollection
	NestedArray
	// SkippedBackReference is never part of a schema; it is what a nested
	// field becomes when its document type is already on the path.
	SkippedBackReference
	// Dynamic fields are interfaces, classified from the value they hold.
	Dynamic
)

func (c Classification) String() string {
	switch c {
	case Scalar:
		return "scalar"
	case NestedSingleObject:
		return "nested object"
	case NestedCollection:
		return "nested collection"
	case NestedArray:
		return "nested array"
	case SkippedBackReference:
		return "skipped back reference"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

type elemKind uint8

const (
	elemScalar elemKind = iota
	elemObject
	elemDynamic
)

// FieldSchema describes one property of a document.
type FieldSchema struct {
	Name  string
	Class Classification
	// Elem is the struct type of a nested object or of collection elements.
	Elem reflect.Type

	index []int
	elem  elemKind
	depth int
}

type Schema struct {
	Type   reflect.Type
	Fields []FieldSchema
}

var (
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

func isMarshaler(t reflect.Type) bool {
	return t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType)
}

// isObject reports whether values of t are walked field by field.
func isObject(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && !isMarshaler(t)
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// classify derives the static classification of a field type. ok is false for
// kinds that have no document representation (channels, funcs).
func classify(t reflect.Type) (class Classification, elem reflect.Type, kind elemKind, ok bool) {
	if isMarshaler(t) {
		return Scalar, nil, elemScalar, true
	}
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return Scalar, nil, elemScalar, false
	case reflect.Interface:
		return Dynamic, nil, elemDynamic, true
	case reflect.Pointer:
		if e := deref(t); isObject(e) {
			return NestedSingleObject, e, elemObject, true
		}
		return Scalar, nil, elemScalar, true
	case reflect.Struct:
		return NestedSingleObject, t, elemObject, true
	case reflect.Slice, reflect.Array:
		class = NestedCollection
		if t.Kind() == reflect.Array {
			class = NestedArray
		}
		et := t.Elem()
		if et.Kind() == reflect.Uint8 && !isMarshaler(et) {
			// []byte is a base64 scalar
			return Scalar, nil, elemScalar, true
		}
		if et.Kind() == reflect.Interface {
			return class, nil, elemDynamic, true
		}
		if e := deref(et); isObject(e) && !isMarshaler(et) {
			return class, e, elemObject, true
		}
		return class, nil, elemScalar, true
	case reflect.Map:
		// string-keyed maps of objects are walked like collections; every
		// other map is a scalar for the encoder
		vt := t.Elem()
		if t.Key().Kind() == reflect.String && !isMarshaler(vt) {
			if e := deref(vt); isObject(e) {
				return NestedCollection, e, elemObject, true
			}
		}
		return NestedCollection, nil, elemScalar, true
	default:
		return Scalar, nil, elemScalar, true
	}
}

// propertyName is the lowercased json tag name, or the lowercased field name.
func propertyName(f reflect.StructField) (name string, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	if idx := strings.Index(tag, ","); idx != -1 {
		tag = tag[:idx]
	}
	if tag == "" {
		tag = f.Name
	}
	return strings.ToLower(tag), false
}

type schemaCache struct {
	mu      sync.RWMutex
	schemas map[reflect.Type]*Schema
}

func newSchemaCache() *schemaCache {
	return &schemaCache{schemas: make(map[reflect.Type]*Schema)}
}

func (c *schemaCache) get(t reflect.Type) *Schema {
	c.mu.RLock()
	s, ok := c.schemas[t]
	c.mu.RUnlock()
	if ok {
		return s
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.schemas[t]; ok {
		return s
	}
	s = buildSchema(t)
	c.schemas[t] = s
	return s
}

func buildSchema(t reflect.Type) *Schema {
	var fields []FieldSchema
	collectFields(t, nil, 0, &fields, map[reflect.Type]bool{})

	// Shallower fields shadow embedded ones of the same name; among equals the
	// first declared wins.
	best := make(map[string]int, len(fields))
	for i, f := range fields {
		if j, ok := best[f.Name]; !ok || f.depth < fields[j].depth {
			best[f.Name] = i
		}
	}
	kept := fields[:0:0]
	for i, f := range fields {
		if best[f.Name] == i {
			kept = append(kept, f)
		}
	}
	return &Schema{Type: t, Fields: kept}
}

func collectFields(t reflect.Type, parent []int, depth int, out *[]FieldSchema, visiting map[reflect.Type]bool) {
	visiting[t] = true
	defer delete(visiting, t)

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), parent...), i)

		if f.Anonymous && f.Tag.Get("json") == "" {
			ft := deref(f.Type)
			if ft.Kind() == reflect.Struct && !isMarshaler(f.Type) {
				if f.IsExported() && !visiting[ft] {
					collectFields(ft, index, depth+1, out, visiting)
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}

		name, skip := propertyName(f)
		if skip {
			continue
		}
		class, elem, kind, ok := classify(f.Type)
		if !ok {
			continue
		}
		*out = append(*out, FieldSchema{
			Name:  name,
			Class: class,
			Elem:  elem,
			index: index,
			elem:  kind,
			depth: depth,
		})
	}
}

// fieldValue follows index through embedded pointers. ok is false when an
// embedded pointer on the way is nil.
func fieldValue(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}
