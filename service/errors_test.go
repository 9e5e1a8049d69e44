package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	t.Run("kind sentinel matches any message", func(t *testing.T) {
		err := conflict("cannot kick the group admin")
		assert.True(t, errors.Is(err, ErrConflict))
		assert.False(t, errors.Is(err, ErrPolicyViolation))
	})

	t.Run("specific sentinel matches by message", func(t *testing.T) {
		wrapped := fmt.Errorf("failed to create bet: %w", ErrDuplicateBet)
		assert.True(t, errors.Is(wrapped, ErrDuplicateBet))
		assert.True(t, errors.Is(wrapped, ErrConflict))
		assert.False(t, errors.Is(ErrConflict, ErrDuplicateBet))
		assert.False(t, errors.Is(ErrDuplicateEmail, ErrDuplicateBet))
	})

	t.Run("settlement failure keeps its cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := settlementFailure(cause, "failed to update bet")
		assert.True(t, errors.Is(err, ErrSettlementFailure))
		assert.True(t, errors.Is(err, cause))
		assert.Equal(t, "failed to update bet: connection reset", err.Error())
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(notFound("game")))
	assert.Equal(t, KindUnauthorized, KindOf(fmt.Errorf("wrapped: %w", unauthorized("admin only"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}
