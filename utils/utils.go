// Package utils provides small helpers shared across the tracking service.
package utils

// ToPtr returns a pointer to v. Used for optional filter fields and
// nullable DTO values.
func ToPtr[T any](v T) *T {
	return &v
}

// IsTrue reports whether an optional bool is present and set.
func IsTrue(b *bool) bool {
	return b != nil && *b
}
