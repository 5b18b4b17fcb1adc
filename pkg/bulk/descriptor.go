// Package bulk turns queued entities into the engine's newline-delimited bulk
// request body.
package bulk

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/escrud/escrud.go/pkg/constants"
)

type Operation uint8

const (
	// OpIndex creates or replaces the document.
	OpIndex Operation = iota
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpIndex:
		return "index"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("operation(%d)", uint8(o))
	}
}

// Routing places a child document on its parent's shard.
type Routing struct {
	Parent  string
	Routing string
}

// Descriptor identifies one queued operation. It is created once per
// Enqueue and read once by the builder.
type Descriptor struct {
	Type    reflect.Type
	ID      string
	Routing *Routing
	Op      Operation
}

// Item is a descriptor together with the entity to write. Entity is nil for
// deletes.
type Item struct {
	Descriptor
	Entity any
}

func NewIndexItem(entity any, id string, routing *Routing) Item {
	return Item{
		Descriptor: Descriptor{Type: reflect.TypeOf(entity), ID: id, Routing: routing, Op: OpIndex},
		Entity:     entity,
	}
}

func NewDeleteItem(t reflect.Type, id string, routing *Routing) Item {
	return Item{
		Descriptor: Descriptor{Type: t, ID: id, Routing: routing, Op: OpDelete},
	}
}

var forbiddenIndexChars = regexp.MustCompile(`[\\/*?",<>|\sA-Z]`)

// ValidIndexName reports whether the engine accepts name as an index.
func ValidIndexName(name string) bool {
	return !forbiddenIndexChars.MatchString(name)
}

// CheckIndexName returns *constants.InvalidIndexNameError when index is
// refused by the engine.
func CheckIndexName(index, docType string) error {
	if ValidIndexName(index) {
		return nil
	}
	return &constants.InvalidIndexNameError{Index: index, Type: docType}
}
