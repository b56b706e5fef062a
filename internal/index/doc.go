// Package index holds the in-memory set of destination keys already present in
// the object store.
//
// The index is built once from a bulk listing and then only grows, as the
// commit writer confirms or creates objects. It is a cache: a stale or empty
// index costs extra existence checks, never correctness.
package index
