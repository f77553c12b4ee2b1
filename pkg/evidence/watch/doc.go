// Package watch notifies when an evidence database is written to.
//
// It backs "courier evidence tail": the database directory is watched with
// fsnotify, events for the database and its -wal and -journal files are
// debounced, and the callback then reads whatever was recorded.
package watch
