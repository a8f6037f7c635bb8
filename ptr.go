package chatsdk

// Ptr returns a pointer to the given value.
// This is useful for constructing optional fields in structs that use pointer types.
func Ptr[T any](v T) *T {
	return &v
}
