// Package blob persists large binary payloads (captured panoramic imagery)
// that are too big to round-trip through the project document.
//
// The store opens its SQLite database lazily: the first operation performs
// the open and every concurrent caller shares that single initialization.
// Garbage collection removes keys no hotspot references anymore and never
// opens a store that was never used.
package blob
