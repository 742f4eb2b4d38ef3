package code

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("assign: %w", New(ErrUnitAlreadyAssigned))

	assert.True(t, Is(err, ErrUnitAlreadyAssigned))
	assert.False(t, Is(err, ErrUnitNotAssigned))
	assert.True(t, errors.Is(err, New(ErrUnitAlreadyAssigned)))
	assert.False(t, Is(errors.New("plain"), ErrUnitAlreadyAssigned))
}

func TestFrom(t *testing.T) {
	e := From(errors.New("boom"))
	assert.Equal(t, ErrUnknown, e.Code)
	assert.Equal(t, StatusInternalServerError, GetStatus(e.Code))
	assert.Contains(t, e.Error(), "boom")

	typed := New(ErrWarrantApprovalRequired)
	assert.Same(t, typed, From(typed))
	assert.Equal(t, "warrantApprovalRequired", typed.Key)
	assert.Equal(t, StatusAccepted, GetStatus(typed.Code))
}

func TestEveryCodeHasKey(t *testing.T) {
	seen := map[string]int{}
	for c, e := range codeMap {
		assert.NotEmpty(t, e.key, "code %d", c)
		if prev, dup := seen[e.key]; dup {
			t.Errorf("key %q used by %d and %d", e.key, prev, c)
		}
		seen[e.key] = c
	}
}
