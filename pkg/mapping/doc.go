// Package mapping turns Go values into search engine documents and back.
//
// A [Strategy] owns the conversion for one entity type. [DefaultStrategy]
// walks exported struct fields in declaration order and writes them with
// lowercased names: scalars as values, structs and pointers to structs as
// nested objects, slices and arrays as JSON arrays. Nil pointers, nil slices
// and nil maps are left out of the document; empty slices are kept as [].
//
// Entity graphs may be cyclic (a parent holding children that point back to
// the parent). The walk carries a [Guard] of the document types opened on the
// path from the root, and a nested object or object collection whose type is
// already on the path is left out. Every type can be opened once per path, so
// the walk always terminates.
//
// A [Registry] maps entity types to strategies and is safe for concurrent use.
package mapping
