package merge

import "maps"

// ByKey overlays incoming onto baseline by key. The result has exactly the
// baseline's keys in the baseline's order. If several incoming entities share
// a key they are applied in incoming order.
func ByKey[T any, K comparable](baseline, incoming []T, keyOf func(T) K, overlay func(base, in T) T) []T {
	out := make([]T, len(baseline))
	copy(out, baseline)
	if len(incoming) == 0 {
		return out
	}

	index := make(map[K]int, len(baseline))
	for i, b := range baseline {
		k := keyOf(b)
		if _, dup := index[k]; !dup {
			index[k] = i
		}
	}
	for _, in := range incoming {
		i, ok := index[keyOf(in)]
		if !ok {
			continue
		}
		out[i] = overlay(out[i], in)
	}
	return out
}

// Replace is an overlay that takes the incoming entity as-is.
func Replace[T any](_, in T) T { return in }

// Fields shallow-merges in onto base for map-shaped entities. Neither argument is modified.
func Fields(base, in map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(in))
	maps.Copy(out, base)
	maps.Copy(out, in)
	return out
}

// Keys returns the key sequence of items.
func Keys[T any, K comparable](items []T, keyOf func(T) K) []K {
	keys := make([]K, len(items))
	for i, it := range items {
		keys[i] = keyOf(it)
	}
	return keys
}
