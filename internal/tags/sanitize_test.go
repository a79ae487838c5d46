package tags

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  map[string]any
		want TagMap
	}{
		{
			name: "drops NaN values",
			raw:  map[string]any{"crow": 2.0, "bad": math.NaN()},
			want: TagMap{"crow": 2},
		},
		{
			name: "drops infinite values",
			raw:  map[string]any{"crow": 1.0, "bad": math.Inf(1)},
			want: TagMap{"crow": 1},
		},
		{
			name: "drops negative counts",
			raw:  map[string]any{"crow": 3.0, "sparrow": -1.0},
			want: TagMap{"crow": 3},
		},
		{
			name: "drops non-numeric values",
			raw:  map[string]any{"crow": "two", "pigeon": nil, "owl": 4.0},
			want: TagMap{"owl": 4},
		},
		{
			name: "accepts integer types",
			raw:  map[string]any{"crow": 2, "owl": int64(3), "kite": uint(1)},
			want: TagMap{"crow": 2, "owl": 3, "kite": 1},
		},
		{
			name: "empty input yields empty map",
			raw:  map[string]any{},
			want: TagMap{},
		},
		{
			name: "nil input yields empty map",
			raw:  nil,
			want: TagMap{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Sanitize(tt.raw))
		})
	}
}

func TestSentinel(t *testing.T) {
	t.Parallel()

	s := Sentinel()
	assert.Equal(t, TagMap{"unknown_bird": 1}, s)

	// mutating the returned map must not affect later callers
	s["crow"] = 5
	assert.Equal(t, TagMap{"unknown_bird": 1}, Sentinel())
}

func TestTagMapClone(t *testing.T) {
	t.Parallel()

	orig := TagMap{"crow": 2}
	clone := orig.Clone()
	clone["crow"] = 9

	assert.InDelta(t, 2, orig["crow"], 0)

	var nilMap TagMap
	assert.NotNil(t, nilMap.Clone())
}
