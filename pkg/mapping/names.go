package mapping

import (
	"reflect"
	"strings"
)

// TypeNameResolver derives the document type and index name of an entity type.
type TypeNameResolver interface {
	DocumentType(t reflect.Type) string
	IndexName(t reflect.Type) string
}

// Proxy marks a generated wrapper around a real entity. Embed it next to the
// wrapped entity and names are resolved from the entity instead of the wrapper:
//
//	type trackedSkill struct {
//		mapping.Proxy
//		Skill
//	}
type Proxy struct{}

var proxyType = reflect.TypeOf(Proxy{})

// EntityType strips pointers and proxy wrappers from t.
func EntityType(t reflect.Type) reflect.Type {
	for t != nil {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		base, ok := proxyBase(t)
		if !ok {
			return t
		}
		t = base
	}
	return t
}

func proxyBase(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	marked := false
	var base reflect.Type
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft == proxyType {
			marked = true
			continue
		}
		if base == nil && ft.Kind() == reflect.Struct {
			base = ft
		}
	}
	if !marked || base == nil {
		return nil, false
	}
	return base, true
}

// DefaultNames lowercases the type name, and pluralizes it with a trailing
// "s" for the index.
type DefaultNames struct{}

func (DefaultNames) DocumentType(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return strings.ToLower(EntityType(t).Name())
}

func (n DefaultNames) IndexName(t reflect.Type) string {
	return n.DocumentType(t) + "s"
}

// FixedNames ignores the type and always answers with the same names.
type FixedNames struct {
	Type  string
	Index string
}

func (n FixedNames) DocumentType(reflect.Type) string {
	return n.Type
}

func (n FixedNames) IndexName(reflect.Type) string {
	return n.Index
}
