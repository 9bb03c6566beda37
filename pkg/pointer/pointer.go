// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pointer converts between optional wire fields and plain values.

The identity service marks optional fields (refresh tokens, account ids) as
nullable. These helpers keep the nil checks out of the domain code.

Key Functions:
  - To: Creates a pointer from a value literal.
  - Val: Dereferences a pointer, returning the zero value if nil.
  - NonZero: Creates a pointer only for a non-zero value.
*/
package pointer

// To returns a pointer to the provided value.
func To[T any](v T) *T {
	return &v
}

// Val dereferences p, returning the zero value of T when p is nil.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// NonZero returns a pointer to v, or nil when v is the zero value.
// Optional response fields use it so an empty value is omitted.
func NonZero[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}
