// Package store provides the persistent key-value stores used by folio caches.
//
// A [Store] is scoped to one namespace (a directory or a database file),
// survives restarts, and has no expiry of its own: freshness is decided by the
// envelope codec on top of it. Every Set replaces the whole value for a key.
//
// Three backends are available: [Memory] for tests and throwaway runs, [File]
// (one JSON entry per key under $XDG_CACHE_HOME/folio) and [SQLite].
package store
