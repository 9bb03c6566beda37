// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package uuidv7 generates time-ordered UUIDv7 identifiers.
//
// The sandbox identity service uses them as account and refresh-session keys,
// which keeps the PostgreSQL primary-key indexes append-only.
package uuidv7

import "github.com/google/uuid"

// New returns a new UUIDv7 string.
//
// It panics only if the OS random source is unavailable.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuidv7: failed to generate UUID: " + err.Error())
	}
	return id.String()
}

// Valid reports whether s is a version 7 UUID.
func Valid(s string) bool {
	id, err := uuid.Parse(s)
	return err == nil && id.Version() == 7
}
