package envelope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoInfo struct {
	Slug  string `json:"slug"`
	Stars int    `json:"stars"`
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.UTC)
	tests := []struct {
		name    string
		payload []repoInfo
	}{
		{"nil", nil},
		{"empty", []repoInfo{}},
		{"single", []repoInfo{{Slug: "scanner", Stars: 12}}},
		{"ordered", []repoInfo{{Slug: "b", Stars: 1}, {Slug: "a", Stars: 2}, {Slug: "c"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.payload, now)
			raw, err := Encode(e)
			require.NoError(t, err)

			got, ok := Decode[repoInfo](raw)
			require.True(t, ok)
			assert.Equal(t, e, got)
		})
	}
}

func TestEncode_NilPayloadDecodesEmpty(t *testing.T) {
	raw, err := Encode(Envelope[repoInfo]{Timestamp: time.UnixMilli(1000).UTC()})
	require.NoError(t, err)
	got, ok := Decode[repoInfo](raw)
	require.True(t, ok)
	assert.Empty(t, got.Payload)
}

func TestDecode_Malformed(t *testing.T) {
	inputs := map[string]string{
		"empty string":       "",
		"truncated":          `{"timestamp":1700000000000,"payload":[{"slug":"a"`,
		"not json":           "hello",
		"array":              `[1,2,3]`,
		"missing timestamp":  `{"payload":[]}`,
		"missing payload":    `{"timestamp":1700000000000}`,
		"null payload":       `{"timestamp":1700000000000,"payload":null}`,
		"object payload":     `{"timestamp":1700000000000,"payload":{"slug":"a"}}`,
		"string timestamp":   `{"timestamp":"yesterday","payload":[]}`,
		"wrong element type": `{"timestamp":1700000000000,"payload":[1,2]}`,
		"null":               `null`,
	}
	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, ok := Decode[repoInfo](raw)
				assert.False(t, ok)
			})
		})
	}
}

func TestFresh_Boundary(t *testing.T) {
	ttl := 24 * time.Hour
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	stale := Envelope[repoInfo]{Timestamp: now.Add(-ttl - time.Millisecond)}
	fresh := Envelope[repoInfo]{Timestamp: now.Add(-ttl + time.Millisecond)}
	exact := Envelope[repoInfo]{Timestamp: now.Add(-ttl)}

	assert.False(t, stale.Fresh(now, ttl))
	assert.True(t, fresh.Fresh(now, ttl))
	assert.False(t, exact.Fresh(now, ttl), "age equal to ttl is stale")
}

func TestAge(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	e := New([]repoInfo{}, now.Add(-25*time.Hour))
	assert.Equal(t, 25*time.Hour, e.Age(now))
}
