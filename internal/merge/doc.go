// Package merge reconciles a baseline entity list with refreshed entities.
//
// [ByKey] keeps the baseline's order and cardinality: incoming entities
// overlay the baseline entity with the same key, and entities whose key is
// not in the baseline are dropped. A corrupted cache or a misbehaving
// enrichment source can therefore never add, remove or reorder entries.
package merge
