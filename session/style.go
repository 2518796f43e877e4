package session

// StyleValue is a styling value that is either fixed or computed from the
// presentation state at render time. It covers the appearance-as-callback
// pattern without reflection: the variant tag decides which branch applies.
type StyleValue[T any] struct {
	static   T
	compute  func(Presentation) T
	computed bool
}

// Static returns a StyleValue that always resolves to v.
func Static[T any](v T) StyleValue[T] {
	return StyleValue[T]{static: v}
}

// Computed returns a StyleValue resolved by calling fn against the current
// presentation state.
func Computed[T any](fn func(Presentation) T) StyleValue[T] {
	return StyleValue[T]{compute: fn, computed: true}
}

// Resolve evaluates the value for the given presentation state.
func (v StyleValue[T]) Resolve(p Presentation) T {
	if v.computed {
		return v.compute(p)
	}
	return v.static
}

// IsComputed reports whether the value depends on presentation state.
func (v StyleValue[T]) IsComputed() bool { return v.computed }
