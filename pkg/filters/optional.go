package filters

// Optional carries a value together with whether the caller supplied it, so a
// legitimate zero bound is never mistaken for "no constraint".
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Get returns the value and whether it was supplied.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value was supplied.
func (o Optional[T]) IsSet() bool { return o.set }

// Range is an optional lower and upper bound; either side may be absent.
type Range struct {
	Min Optional[float64]
	Max Optional[float64]
}

// IsSet reports whether either side was supplied.
func (r Range) IsSet() bool { return r.Min.IsSet() || r.Max.IsSet() }
