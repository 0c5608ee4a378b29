package common

// Coalesce returns the first of values that is not the zero value of T.
// Option defaults use it so that an unset or zero setting falls back to the default.
//
// Parameters:
//   - values: candidates in order of preference
//
// Returns:
//   - T: the first non-zero candidate, or the zero value when there is none
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
