// Package history persists a bounded record of completed optimisation
// results so status lookups survive past the in-memory coordinator state.
package history
