// Package docwriter provides sinks for nested document events.
//
// A document is produced by a sequence of StartObject/EndObject,
// StartArray/EndArray, Property and Value calls. Start and end events must
// balance; both writers report ErrUnbalanced when they do not, and misuse
// (a Property inside an array, a Value without a Property inside an object)
// is reported the same way instead of producing a broken document.
package docwriter

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/escrud/escrud.go/pkg/constants"
)

type Writer interface {
	StartObject()
	EndObject()
	StartArray()
	EndArray()
	// Property names the next value inside an object.
	Property(name string)
	// Value writes a scalar, or a collection of scalars, in the sink's native encoding.
	Value(v any) error
}

type frame struct {
	array    bool
	count    int
	awaiting bool
}

// JSONWriter streams compact JSON into a buffer.
type JSONWriter struct {
	buf   *bytes.Buffer
	stack []frame
	err   error
}

func NewJSONWriter() *JSONWriter {
	return &JSONWriter{buf: &bytes.Buffer{}}
}

// NewJSONWriterTo appends to an existing buffer, which is how the bulk
// builder writes several documents into one stream.
func NewJSONWriterTo(buf *bytes.Buffer) *JSONWriter {
	return &JSONWriter{buf: buf}
}

func (w *JSONWriter) fail(format string, args ...any) {
	if w.err == nil {
		w.err = fmt.Errorf("%w: "+format, append([]any{constants.ErrUnbalanced}, args...)...)
	}
}

func (w *JSONWriter) beforeValue() bool {
	if w.err != nil {
		return false
	}
	if len(w.stack) == 0 {
		return true
	}
	top := &w.stack[len(w.stack)-1]
	if top.array {
		if top.count > 0 {
			w.buf.WriteByte(',')
		}
		top.count++
		return true
	}
	if !top.awaiting {
		w.fail("value inside an object without a property name")
		return false
	}
	top.awaiting = false
	return true
}

func (w *JSONWriter) StartObject() {
	if !w.beforeValue() {
		return
	}
	w.buf.WriteByte('{')
	w.stack = append(w.stack, frame{})
}

func (w *JSONWriter) EndObject() {
	w.end(false, '}')
}

func (w *JSONWriter) StartArray() {
	if !w.beforeValue() {
		return
	}
	w.buf.WriteByte('[')
	w.stack = append(w.stack, frame{array: true})
}

func (w *JSONWriter) EndArray() {
	w.end(true, ']')
}

func (w *JSONWriter) end(array bool, c byte) {
	if w.err != nil {
		return
	}
	if len(w.stack) == 0 {
		w.fail("end %q without start", c)
		return
	}
	top := w.stack[len(w.stack)-1]
	if top.array != array || top.awaiting {
		w.fail("end %q does not match the open container", c)
		return
	}
	w.stack = w.stack[:len(w.stack)-1]
	w.buf.WriteByte(c)
}

func (w *JSONWriter) Property(name string) {
	if w.err != nil {
		return
	}
	if len(w.stack) == 0 || w.stack[len(w.stack)-1].array || w.stack[len(w.stack)-1].awaiting {
		w.fail("property %q outside an object", name)
		return
	}
	top := &w.stack[len(w.stack)-1]
	if top.count > 0 {
		w.buf.WriteByte(',')
	}
	top.count++
	top.awaiting = true

	key, err := json.Marshal(name)
	if err != nil {
		w.err = err
		return
	}
	w.buf.Write(key)
	w.buf.WriteByte(':')
}

func (w *JSONWriter) Value(v any) error {
	if w.err != nil {
		return w.err
	}
	data, err := json.MarshalNoEscape(v)
	if err != nil {
		return err
	}
	if !w.beforeValue() {
		return w.err
	}
	w.buf.Write(data)
	return nil
}

// Depth is the number of open containers.
func (w *JSONWriter) Depth() int {
	return len(w.stack)
}

// Err returns the first error seen, or ErrUnbalanced while containers are
// still open.
func (w *JSONWriter) Err() error {
	if w.err != nil {
		return w.err
	}
	if len(w.stack) != 0 {
		return fmt.Errorf("%w: %d containers left open", constants.ErrUnbalanced, len(w.stack))
	}
	return nil
}

// Bytes returns the document once every container has been closed.
func (w *JSONWriter) Bytes() ([]byte, error) {
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}
