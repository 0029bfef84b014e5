// Package folioerr defines the error kinds shared by the folio data layer.
//
// Only [ErrMutationFailed] is expected to reach callers: decode, fetch and
// store-write failures describe degraded-but-safe states and are contained by
// the package that observes them (logged, never returned).
package folioerr
