package slices

func Shrink[T any](a []T) []T {
	if cap(a) > len(a) {
		a = append(make([]T, 0, len(a)), a...)
	}
	return a
}

// Uniq drops repeated elements and keeps the first occurrence order.
func Uniq[T comparable](a []T) []T {
	if len(a) < 2 {
		return a
	}
	seen := make(map[T]struct{}, len(a))
	out := a[:0]
	for _, v := range a {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
