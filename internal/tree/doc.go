// Package tree implements the instantiated configuration tree: structured
// nodes backed by compiled class descriptors, typed value leaves, ordered
// lists, keyed maps, and warped slots whose effective variant is recomputed
// from followed values.
//
// One tree is single-threaded by design: callers serialize access
// externally. Elements are created lazily on first access along a path and
// every completed mutation is recorded in a journal, which gives the step
// loader all-or-nothing application (Snapshot/Rollback) and cheap cloning.
package tree
