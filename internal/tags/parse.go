package tags

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ParseKind discriminates how query-file content was interpreted.
type ParseKind int

const (
	// ParseInvalid means the content yielded no usable tag/count pairs.
	ParseInvalid ParseKind = iota
	// ParseStructured means the content was a JSON object or an array of
	// single-entry objects.
	ParseStructured
	// ParseLineBased means the content was line-oriented "tag[:count]" text.
	ParseLineBased
)

// TagCount is one parsed tag/minimum-count pair. Order of appearance in the
// source content is preserved.
type TagCount struct {
	Tag   string
	Count float64
}

// ParseResult is the outcome of parsing query-file content.
type ParseResult struct {
	Kind  ParseKind
	Pairs []TagCount
}

// Valid reports whether parsing produced at least one pair.
func (r ParseResult) Valid() bool {
	return r.Kind != ParseInvalid && len(r.Pairs) > 0
}

// ParseContent interprets query-file content. It first attempts a structured
// JSON parse and falls back to line-oriented "tag[:count]" text where blank
// lines and lines starting with '#' are skipped and a missing count defaults
// to 1.
func ParseContent(content string) ParseResult {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ParseResult{Kind: ParseInvalid}
	}

	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err == nil {
		return parseStructured(value)
	}
	return parseLines(trimmed)
}

// parseStructured accepts a JSON object of tag->count, or an array of such
// objects. Any other JSON value is invalid rather than silently retried as
// line text.
func parseStructured(value any) ParseResult {
	var pairs []TagCount
	switch v := value.(type) {
	case map[string]any:
		pairs = appendObjectPairs(pairs, v)
	case []any:
		for _, entry := range v {
			obj, ok := entry.(map[string]any)
			if !ok {
				return ParseResult{Kind: ParseInvalid}
			}
			pairs = appendObjectPairs(pairs, obj)
		}
	default:
		return ParseResult{Kind: ParseInvalid}
	}

	if len(pairs) == 0 {
		return ParseResult{Kind: ParseInvalid}
	}
	return ParseResult{Kind: ParseStructured, Pairs: pairs}
}

func appendObjectPairs(pairs []TagCount, obj map[string]any) []TagCount {
	for tag, raw := range obj {
		count, ok := numericValue(raw)
		if !ok {
			continue
		}
		pairs = append(pairs, TagCount{Tag: tag, Count: count})
	}
	return pairs
}

// parseLines parses "tag[:count]" lines. A count that is not a plain
// non-negative integer falls back to 1, matching the lenient intake format.
func parseLines(content string) ParseResult {
	var pairs []TagCount
	for line := range strings.SplitSeq(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tag := line
		count := 1.0
		if before, after, found := strings.Cut(line, ":"); found {
			tag = strings.TrimSpace(before)
			if n, err := strconv.Atoi(strings.TrimSpace(after)); err == nil && n >= 0 {
				count = float64(n)
			}
		}
		if tag == "" {
			continue
		}
		pairs = append(pairs, TagCount{Tag: tag, Count: count})
	}

	if len(pairs) == 0 {
		return ParseResult{Kind: ParseInvalid}
	}
	return ParseResult{Kind: ParseLineBased, Pairs: pairs}
}

// ParseDeltas parses manual tagging "tag,count" strings into a tag->count
// map. Malformed entries (no comma, non-integer count) are silently skipped.
func ParseDeltas(deltas []string) map[string]int {
	parsed := make(map[string]int, len(deltas))
	for _, delta := range deltas {
		tag, countStr, found := strings.Cut(delta, ",")
		if !found {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil {
			continue
		}
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		parsed[tag] = count
	}
	return parsed
}
