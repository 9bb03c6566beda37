// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/gigly/pkg/pointer"
)

/*
TestVal covers nil and non-nil dereference.
*/
func TestVal(t *testing.T) {
	assert.Equal(t, "", pointer.Val[string](nil))
	assert.Equal(t, "rt", pointer.Val(pointer.To("rt")))
}

/*
TestNonZero verifies that zero values become nil.
*/
func TestNonZero(t *testing.T) {
	assert.Nil(t, pointer.NonZero(""))
	assert.Nil(t, pointer.NonZero(0))
	assert.Equal(t, "rt", *pointer.NonZero("rt"))
}
