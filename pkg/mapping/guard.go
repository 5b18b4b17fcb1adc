package mapping

import "slices"

// Guard is the ordered set of document types (and, under CycleByIdentity,
// addresses) opened on the path from the document root. It is a value: With
// returns a new guard and never changes the receiver, so sibling subtrees do
// not see each other's entries.
//
// The zero Guard means "start of a new document".
type Guard struct {
	names []string
	ptrs  []uintptr
}

func NewGuard(names ...string) Guard {
	return Guard{names: slices.Clone(names)}
}

func (g Guard) Empty() bool {
	return len(g.names) == 0 && len(g.ptrs) == 0
}

func (g Guard) Contains(name string) bool {
	return slices.Contains(g.names, name)
}

func (g Guard) With(name string) Guard {
	if g.Contains(name) {
		return g
	}
	names := make([]string, len(g.names), len(g.names)+1)
	copy(names, g.names)
	return Guard{names: append(names, name), ptrs: g.ptrs}
}

// Names lists the document types in the order they were opened.
func (g Guard) Names() []string {
	return slices.Clone(g.names)
}

func (g Guard) containsPtr(p uintptr) bool {
	return slices.Contains(g.ptrs, p)
}

func (g Guard) withPtr(p uintptr) Guard {
	ptrs := make([]uintptr, len(g.ptrs), len(g.ptrs)+1)
	copy(ptrs, g.ptrs)
	return Guard{names: g.names, ptrs: append(ptrs, p)}
}
