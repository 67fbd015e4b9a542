package index

import "slices"

// Intersect returns the ids present in both a and b. Both inputs must be
// sorted; the result is sorted.
func Intersect(a, b []string) []string {
	out := make([]string, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

// IntersectAll intersects every set, smallest first. It returns nil when
// sets is empty.
func IntersectAll(sets ...[]string) []string {
	if len(sets) == 0 {
		return nil
	}

	ordered := slices.Clone(sets)
	slices.SortStableFunc(ordered, func(a, b []string) int { return len(a) - len(b) })

	result := ordered[0]
	for _, set := range ordered[1:] {
		if len(result) == 0 {
			break
		}
		result = Intersect(result, set)
	}
	return slices.Clone(result)
}

// union merges sorted id sets into one sorted set without duplicates
func union(sets ...[]string) []string {
	switch len(sets) {
	case 0:
		return []string{}
	case 1:
		return sets[0]
	}

	var out []string
	for _, set := range sets {
		out = append(out, set...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
