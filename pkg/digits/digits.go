// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package digits normalizes user-typed or pasted numeric input.
//
// # Usage
//
// Phone numbers and one-time codes often arrive with separators, stray
// whitespace, or full-width digits typed through an IME ("０９０"). This
// package folds them into plain ASCII before any validation runs.
package digits

import (
	"strings"

	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

// Narrow folds full-width characters into their ASCII counterparts.
//
// # Transformation Pipeline
//
// 1. Maps East Asian wide forms to narrow forms (０ → 0, ＋ → +).
// 2. Leaves every other rune untouched.
func Narrow(s string) string {
	result, _, err := transform.String(width.Narrow, s)
	if err != nil {
		return s
	}
	return result
}

// Only returns the ASCII digits of s, in order, after narrowing.
func Only(s string) string {
	narrowed := Narrow(s)

	var builder strings.Builder
	builder.Grow(len(narrowed))
	for _, r := range narrowed {
		if r >= '0' && r <= '9' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// IsExact reports whether s consists of exactly n ASCII digits and nothing else.
func IsExact(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Phone normalizes a phone number: narrows it, drops separators
// (spaces, dashes, dots, parentheses), and keeps a single leading '+'.
func Phone(s string) string {
	narrowed := strings.TrimSpace(Narrow(s))

	var builder strings.Builder
	builder.Grow(len(narrowed))
	for i, r := range narrowed {
		switch {
		case r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '+' && i == 0:
			builder.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
			continue
		default:
			// Unknown characters are kept so validation can reject them.
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
