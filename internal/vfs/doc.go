// Package vfs implements the in-memory virtual file store of a playground
// project.
//
// The store is a flat, ordered collection of (path, content) records.
// Directories are implicit path prefixes; an empty directory is kept alive by
// a "<dir>/.placeholder" file. Every mutation builds a new slice and swaps it
// in atomically, so a reader holding a snapshot never sees a half-applied
// change. The store never holds zero files.
package vfs
