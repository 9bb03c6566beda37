// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slice holds generic helpers the standard [slices] package lacks.
package slice

// Map returns transform applied to every element of input, in order.
// A nil input maps to nil.
func Map[T, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, 0, len(input))
	for _, item := range input {
		result = append(result, transform(item))
	}
	return result
}
