package stats

// Value is a metric that may be absent for the current window.
type Value[T any] struct {
	v  T
	ok bool
}

// Some wraps a computed metric.
func Some[T any](v T) Value[T] {
	return Value[T]{v: v, ok: true}
}

// None marks a metric with no qualifying observations.
func None[T any]() Value[T] {
	return Value[T]{}
}

// Get returns the metric and whether it was computed.
func (v Value[T]) Get() (T, bool) {
	return v.v, v.ok
}

// OrElse returns the metric, or previous when it is absent.
func (v Value[T]) OrElse(previous T) T {
	if v.ok {
		return v.v
	}
	return previous
}
