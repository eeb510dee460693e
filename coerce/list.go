package coerce

// List coerces an element container into a slice, converting each element
// with elem. Strings, byte slices and mappings are not containers and fail
// with list_type. The first element failure is returned, located at its index,
// and no partial result is returned.
func List[T any](v any, elem func(any) (T, error)) ([]T, error) {
	if !IsIterable(v) {
		return nil, fail(CodeListType, "list", v, nil)
	}
	n, _ := Len(v)
	out := make([]T, 0, n)
	err := Each(v, func(i int, e any) error {
		x, err := elem(e)
		if err != nil {
			return At(err, i)
		}
		out = append(out, x)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IntList coerces v into a list of integers with Int.
func IntList(v any) ([]int64, error) { return List(v, Int) }
