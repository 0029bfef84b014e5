package merge

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapKey(m map[string]any) string { return m["key"].(string) }

func TestByKey_UnknownKeyDropped(t *testing.T) {
	baseline := []map[string]any{{"key": "a"}, {"key": "b"}}
	incoming := []map[string]any{{"key": "a", "extra": 1}, {"key": "z", "extra": 2}}

	got := ByKey(baseline, incoming, mapKey, Fields)

	want := []map[string]any{{"key": "a", "extra": 1}, {"key": "b"}}
	assert.Equal(t, want, got)
	assert.Equal(t, []map[string]any{{"key": "a"}, {"key": "b"}}, baseline, "baseline must not be modified")
}

func TestByKey_EmptyIncoming(t *testing.T) {
	baseline := []map[string]any{{"key": "a", "n": 1}, {"key": "b", "n": 2}}
	assert.Equal(t, baseline, ByKey(baseline, nil, mapKey, Fields))
	assert.Equal(t, baseline, ByKey(baseline, []map[string]any{}, mapKey, Fields))
}

func TestByKey_EmptyBaseline(t *testing.T) {
	got := ByKey(nil, []map[string]any{{"key": "a"}}, mapKey, Fields)
	assert.Empty(t, got)
}

func TestByKey_DuplicateIncomingAppliedInOrder(t *testing.T) {
	baseline := []map[string]any{{"key": "a"}}
	incoming := []map[string]any{{"key": "a", "stars": 1}, {"key": "a", "stars": 5}}
	got := ByKey(baseline, incoming, mapKey, Fields)
	assert.Equal(t, []map[string]any{{"key": "a", "stars": 5}}, got)
}

func TestByKey_Replace(t *testing.T) {
	type repo struct {
		Slug  string
		Stars int
	}
	slug := func(r repo) string { return r.Slug }
	baseline := []repo{{"x", 0}, {"y", 0}}
	got := ByKey(baseline, []repo{{"y", 9}}, slug, Replace[repo])
	assert.Equal(t, []repo{{"x", 0}, {"y", 9}}, got)
}

func randomLists(r *rand.Rand) (baseline, incoming []map[string]any) {
	n := r.IntN(12)
	for i := range n {
		baseline = append(baseline, map[string]any{"key": fmt.Sprintf("k%d", i), "v": i})
	}
	m := r.IntN(20)
	for range m {
		incoming = append(incoming, map[string]any{
			"key":   fmt.Sprintf("k%d", r.IntN(n+5)),
			"stars": r.IntN(100),
		})
	}
	return baseline, incoming
}

func TestByKey_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := range 200 {
		baseline, incoming := randomLists(r)
		t.Run(fmt.Sprintf("case%d", i), func(t *testing.T) {
			once := ByKey(baseline, incoming, mapKey, Fields)

			require.Len(t, once, len(baseline), "cardinality")
			assert.Equal(t, Keys(baseline, mapKey), Keys(once, mapKey), "order")

			twice := ByKey(once, incoming, mapKey, Fields)
			assert.Equal(t, once, twice, "idempotent")
		})
	}
}

func TestFields_DoesNotAlias(t *testing.T) {
	base := map[string]any{"key": "a", "n": 1}
	in := map[string]any{"n": 2}
	out := Fields(base, in)
	out["n"] = 3
	assert.Equal(t, 1, base["n"])
	assert.Equal(t, 2, in["n"])
}
