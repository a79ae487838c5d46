// Package tags defines the species tag multiset and the parsers and
// sanitizer that produce it from untrusted input.
package tags

import "maps"

// SentinelSpecies is the placeholder tag stored when detection yields no
// usable tags, so freshly ingested records never carry an empty map. Manual
// tag removal may still empty a map later.
const SentinelSpecies = "unknown_bird"

// TagMap maps a species name to its occurrence count within one media object.
// Counts are non-negative and finite.
type TagMap map[string]float64

// Sentinel returns the fallback tag map used when no confident detections
// exist.
func Sentinel() TagMap {
	return TagMap{SentinelSpecies: 1}
}

// Clone returns a copy of the tag map. A nil map clones to an empty map.
func (t TagMap) Clone() TagMap {
	out := make(TagMap, len(t))
	maps.Copy(out, t)
	return out
}

// Species returns the tag names in unspecified order.
func (t TagMap) Species() []string {
	out := make([]string, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	return out
}
