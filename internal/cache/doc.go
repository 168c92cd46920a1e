// Package cache persists the local per-scene annotation mirror in SQLite.
//
// The cache is advisory: it may be behind or ahead of the authoritative
// project document. The synchronization core reads it as a fallback when the
// server is unreachable and writes through to it on every settled edit.
package cache
