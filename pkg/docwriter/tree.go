package docwriter

import (
	"fmt"

	"github.com/escrud/escrud.go/pkg/constants"
)

type node struct {
	obj      map[string]any
	arr      []any
	array    bool
	key      string
	awaiting bool
}

// TreeWriter builds the document as map[string]any and []any values so it
// can be handed to any codec, CBOR included. Key order is not kept.
type TreeWriter struct {
	stack []*node
	root  any
	done  bool
	err   error
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{}
}

func (w *TreeWriter) fail(format string, args ...any) {
	if w.err == nil {
		w.err = fmt.Errorf("%w: "+format, append([]any{constants.ErrUnbalanced}, args...)...)
	}
}

func (w *TreeWriter) put(v any) {
	if w.err != nil {
		return
	}
	if len(w.stack) == 0 {
		if w.done {
			w.fail("more than one root value")
			return
		}
		w.root = v
		w.done = true
		return
	}
	top := w.stack[len(w.stack)-1]
	if top.array {
		top.arr = append(top.arr, v)
		return
	}
	if !top.awaiting {
		w.fail("value inside an object without a property name")
		return
	}
	top.obj[top.key] = v
	top.awaiting = false
}

func (w *TreeWriter) StartObject() {
	if w.err != nil {
		return
	}
	w.stack = append(w.stack, &node{obj: map[string]any{}})
}

func (w *TreeWriter) EndObject() {
	if n := w.pop(false); n != nil {
		w.put(n.obj)
	}
}

func (w *TreeWriter) StartArray() {
	if w.err != nil {
		return
	}
	w.stack = append(w.stack, &node{array: true, arr: []any{}})
}

func (w *TreeWriter) EndArray() {
	if n := w.pop(true); n != nil {
		w.put(n.arr)
	}
}

func (w *TreeWriter) pop(array bool) *node {
	if w.err != nil {
		return nil
	}
	if len(w.stack) == 0 {
		w.fail("end without start")
		return nil
	}
	top := w.stack[len(w.stack)-1]
	if top.array != array || top.awaiting {
		w.fail("end does not match the open container")
		return nil
	}
	w.stack = w.stack[:len(w.stack)-1]
	return top
}

func (w *TreeWriter) Property(name string) {
	if w.err != nil {
		return
	}
	if len(w.stack) == 0 || w.stack[len(w.stack)-1].array || w.stack[len(w.stack)-1].awaiting {
		w.fail("property %q outside an object", name)
		return
	}
	top := w.stack[len(w.stack)-1]
	top.key = name
	top.awaiting = true
}

func (w *TreeWriter) Value(v any) error {
	w.put(v)
	return w.err
}

// Tree returns the finished document.
func (w *TreeWriter) Tree() (any, error) {
	if w.err != nil {
		return nil, w.err
	}
	if len(w.stack) != 0 {
		return nil, fmt.Errorf("%w: %d containers left open", constants.ErrUnbalanced, len(w.stack))
	}
	return w.root, nil
}
