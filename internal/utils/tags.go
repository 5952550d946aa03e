package utils

import (
	"maps"
	"slices"
)

// MergeTags merges multiple tag maps with later maps having higher precedence
// and converts the result, sorted by key, into a service-specific tag type
func MergeTags[T any](newTag func(key, value string) T, tt ...map[string]string) []T {
	m := MergeMaps(tt...)

	var results []T
	for _, k := range slices.Sorted(maps.Keys(m)) {
		results = append(results, newTag(k, m[k]))
	}

	return results
}

// MergeMaps merges multiple maps with later maps having higher precedence
func MergeMaps(mm ...map[string]string) map[string]string {
	m := map[string]string{}
	for _, p := range mm {
		maps.Copy(m, p)
	}
	return m
}
