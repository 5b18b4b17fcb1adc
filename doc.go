// Package escrud is an object-document mapping client for Elasticsearch style
// search engines.
//
// # Mapping
//
// Entities are plain Go structs. Every exported field becomes a property with
// a lowercased name (or the lowercased json tag name). Nested structs become
// nested objects and slices of structs become arrays of objects. Back
// references are cut: a nested object whose document type is already open on
// the path from the root is left out, so graphs with parent/child cycles
// always produce finite documents.
//
// The document type of a struct is its lowercased type name and its index is
// the document type followed by "s". Both are decided by a [mapping.Strategy]
// resolved from the client's [mapping.Registry]; register your own strategy
// to change names or the document layout of one type.
//
// # Bulk
//
// [Client.Enqueue] and [EnqueueDelete] queue operations, and [Client.Flush]
// sends everything queued as a single bulk request, in queue order. Index
// names are checked before anything is sent: a type whose index the engine
// would refuse aborts the whole flush with an [InvalidIndexNameError] and the
// queue is kept.
//
// # Documents
//
// [Get], [Exists], [Index], [Delete], [Search], [SearchByID] and [Count] work
// on single documents or queries. Each has the entity type as its type
// parameter.
//
// Provide a proper engine endpoint URL to [FromEndpointURLString], or build a
// [connection.Config] and call [New].
package escrud
