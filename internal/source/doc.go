// Package source reads media-bearing records from a MongoDB collection.
//
// Records are read page by page in _id order so that skip/limit paging is
// stable across a run. Each document is reduced to a model.Record: the owner
// identifier plus the media entries that carry both a URL and a kind.
package source
