package mapping

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/goccy/go-json"

	"github.com/escrud/escrud.go/pkg/constants"
	"github.com/escrud/escrud.go/pkg/docwriter"
)

// Strategy converts between one entity type and its documents.
type Strategy interface {
	TypeNameResolver

	// WriteEntity writes entity as one object. A zero guard starts a new
	// document: the entity's own type becomes the first entry. A non-zero
	// guard continues a walk whose caller already added the entity's type.
	WriteEntity(w docwriter.Writer, entity any, g Guard) error

	// ParseEntity decodes a raw JSON document into a new value of target and
	// returns a pointer to it.
	ParseEntity(raw []byte, target reflect.Type) (any, error)
}

// CyclePolicy decides when a nested value is a back reference.
type CyclePolicy uint8

const (
	// CycleByTypeName prunes a nested object or object collection whose
	// document type is already open on the path, whether or not it is the
	// same instance. This is the historical wire behavior.
	CycleByTypeName CyclePolicy = iota
	// CycleByIdentity prunes only pointers (and slice backing arrays) that
	// are already open on the path, so unrelated values of the same type,
	// such as the nodes of a linked list, are all written.
	CycleByIdentity
)

type Option func(*DefaultStrategy)

func WithNames(n TypeNameResolver) Option {
	return func(s *DefaultStrategy) {
		s.TypeNameResolver = n
	}
}

func WithCyclePolicy(p CyclePolicy) Option {
	return func(s *DefaultStrategy) {
		s.policy = p
	}
}

// DefaultStrategy writes every exported field with a lowercased name and
// parses documents with a plain structural decode. String-keyed maps whose
// values are objects are walked like collections and written as objects with
// sorted keys; any other map is handed to the encoder as a scalar.
type DefaultStrategy struct {
	TypeNameResolver

	policy  CyclePolicy
	schemas *schemaCache
}

func NewDefaultStrategy(opts ...Option) *DefaultStrategy {
	s := &DefaultStrategy{
		TypeNameResolver: DefaultNames{},
		policy:           CycleByTypeName,
		schemas:          newSchemaCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schema returns the memoized field layout of t.
func (s *DefaultStrategy) Schema(t reflect.Type) *Schema {
	return s.schemas.get(deref(t))
}

func (s *DefaultStrategy) WriteEntity(w docwriter.Writer, entity any, g Guard) error {
	v := reflect.ValueOf(entity)
	ref := v
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return constants.ErrNilEntity
		}
		ref = v
		v = v.Elem()
	}
	if !v.IsValid() {
		return constants.ErrNilEntity
	}
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("mapping: %s is not a struct", v.Type())
	}

	if g.Empty() {
		var ok bool
		if g, ok = s.enter(Guard{}, v.Type(), ref); !ok {
			return nil
		}
	}
	return s.writeObject(w, v, g)
}

// enter decides whether a struct of type t, reached through ref, may be opened
// under g, and returns the guard its own fields are written with.
func (s *DefaultStrategy) enter(g Guard, t reflect.Type, ref reflect.Value) (Guard, bool) {
	name := s.DocumentType(t)
	if s.policy == CycleByIdentity {
		if ref.IsValid() && ref.Kind() == reflect.Pointer && !ref.IsNil() {
			p := ref.Pointer()
			if g.containsPtr(p) {
				return g, false
			}
			g = g.withPtr(p)
		}
		return g.With(name), true
	}
	if g.Contains(name) {
		return g, false
	}
	return g.With(name), true
}

func (s *DefaultStrategy) writeObject(w docwriter.Writer, v reflect.Value, g Guard) error {
	w.StartObject()
	for _, f := range s.schemas.get(v.Type()).Fields {
		fv, ok := fieldValue(v, f.index)
		if !ok {
			continue
		}
		if err := s.writeField(w, f.Name, f.Class, f.elem, f.Elem, fv, g); err != nil {
			return fmt.Errorf("field %s.%s: %w", v.Type(), f.Name, err)
		}
	}
	w.EndObject()
	return nil
}

func (s *DefaultStrategy) writeField(w docwriter.Writer, name string, class Classification, kind elemKind, elem reflect.Type, fv reflect.Value, g Guard) error {
	switch class {
	case Scalar:
		w.Property(name)
		return w.Value(fv.Interface())

	case Dynamic:
		if fv.IsNil() {
			return nil
		}
		inner := fv.Elem()
		c, e, k, ok := classify(inner.Type())
		if !ok || c == Dynamic {
			return nil
		}
		return s.writeField(w, name, c, k, e, inner, g)

	case NestedSingleObject:
		ref := fv
		for fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				return nil
			}
			ref = fv
			fv = fv.Elem()
		}
		inner, ok := s.enter(g, fv.Type(), ref)
		if !ok {
			return nil
		}
		w.Property(name)
		return s.writeObject(w, fv, inner)

	case NestedCollection, NestedArray:
		if (fv.Kind() == reflect.Slice || fv.Kind() == reflect.Map) && fv.IsNil() {
			return nil
		}
		switch kind {
		case elemScalar:
			w.Property(name)
			return w.Value(fv.Interface())
		case elemObject:
			if s.policy == CycleByTypeName && g.Contains(s.DocumentType(elem)) {
				return nil
			}
		}
		return s.writeCollection(w, name, fv, g)
	}
	return nil
}

func (s *DefaultStrategy) writeCollection(w docwriter.Writer, name string, fv reflect.Value, g Guard) error {
	if fv.Kind() == reflect.Map {
		return s.writeMap(w, name, fv, g)
	}
	if s.policy == CycleByIdentity && fv.Kind() == reflect.Slice && fv.Len() > 0 {
		p := fv.Pointer()
		if g.containsPtr(p) {
			return nil
		}
		g = g.withPtr(p)
	}

	w.Property(name)
	w.StartArray()
	for i := 0; i < fv.Len(); i++ {
		if err := s.writeElement(w, fv.Index(i), g); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	w.EndArray()
	return nil
}

// writeMap writes a string-keyed map of objects as an object with sorted keys.
// Entries whose value is pruned by the guard are left out.
func (s *DefaultStrategy) writeMap(w docwriter.Writer, name string, fv reflect.Value, g Guard) error {
	if s.policy == CycleByIdentity && fv.Len() > 0 {
		p := fv.Pointer()
		if g.containsPtr(p) {
			return nil
		}
		g = g.withPtr(p)
	}

	keys := fv.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return strings.Compare(a.String(), b.String())
	})

	w.Property(name)
	w.StartObject()
	for _, k := range keys {
		ev := fv.MapIndex(k)
		ref := ev
		for ev.Kind() == reflect.Pointer && !ev.IsNil() {
			ref = ev
			ev = ev.Elem()
		}
		if ev.Kind() == reflect.Pointer {
			w.Property(k.String())
			if err := w.Value(nil); err != nil {
				return err
			}
			continue
		}
		inner, ok := s.enter(g, ev.Type(), ref)
		if !ok {
			continue
		}
		w.Property(k.String())
		if err := s.writeObject(w, ev, inner); err != nil {
			return fmt.Errorf("[%q]: %w", k.String(), err)
		}
	}
	w.EndObject()
	return nil
}

func (s *DefaultStrategy) writeElement(w docwriter.Writer, ev reflect.Value, g Guard) error {
	ref := ev
	for ev.Kind() == reflect.Pointer || ev.Kind() == reflect.Interface {
		if ev.IsNil() {
			return w.Value(nil)
		}
		if ev.Kind() == reflect.Pointer {
			ref = ev
		}
		ev = ev.Elem()
	}
	if !isObject(ev.Type()) || isMarshaler(ref.Type()) {
		return w.Value(ref.Interface())
	}
	inner, ok := s.enter(g, ev.Type(), ref)
	if !ok {
		// only reachable for dynamic elements; typed collections were
		// checked as a whole before writing started
		return nil
	}
	return s.writeObject(w, ev, inner)
}

func (s *DefaultStrategy) ParseEntity(raw []byte, target reflect.Type) (any, error) {
	t := deref(target)
	ptr := reflect.New(t)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return nil, &constants.DeserializationError{
			Target:   t.String(),
			Fragment: fragment(raw),
			Err:      err,
		}
	}
	return ptr.Interface(), nil
}

const maxFragment = 256

func fragment(raw []byte) string {
	if len(raw) <= maxFragment {
		return string(raw)
	}
	return string(raw[:maxFragment]) + "..."
}
