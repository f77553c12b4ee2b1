// Package storage provides backends for evidence records.
//
//   - SQLite: a single database file (modernc.org/sqlite, no cgo)
//   - Memory: records kept for the life of the process
//
// Open picks the backend from the evidence configuration; the path
// ":memory:" selects the memory backend.
//
// The SQLite backend stores timestamps as Unix nanoseconds so range
// filters compare integers, and enables WAL mode so "courier evidence
// tail" can read while a chat run writes.
package storage
