package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmforge/dm-api/internal/errors"
)

func TestNew(t *testing.T) {
	err := errors.New(errors.CodeNotFound, "game state not found")

	assert.Equal(t, errors.CodeNotFound, err.Code)
	assert.Equal(t, "game state not found", err.Message)
	assert.Equal(t, "NOT_FOUND: game state not found", err.Error())
}

func TestWrap_PreservesCode(t *testing.T) {
	cause := errors.Unavailable("narrative backend refused connection")
	err := errors.Wrap(cause, "failed to resolve action")

	assert.Equal(t, errors.CodeUnavailable, err.Code)
	assert.True(t, errors.IsUnavailable(err))
	assert.ErrorIs(t, err, cause)
}

func TestWrap_PlainErrorBecomesInternal(t *testing.T) {
	cause := stderrors.New("boom")
	err := errors.Wrap(cause, "something broke")

	assert.Equal(t, errors.CodeInternal, err.Code)
	assert.ErrorIs(t, err, cause)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, "ignored"))
}

func TestWrapWithCode(t *testing.T) {
	cause := fmt.Errorf("context deadline exceeded")
	err := errors.WrapWithCode(cause, errors.CodeDeadlineExceeded, "narrative call timed out")

	assert.Equal(t, errors.CodeDeadlineExceeded, err.Code)
	assert.True(t, errors.IsDeadlineExceeded(err))
	assert.True(t, errors.IsTransient(err))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeInternal, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.CodeAborted, errors.GetCode(errors.Aborted("tx conflict")))
}

func TestGetMessage(t *testing.T) {
	assert.Equal(t, "", errors.GetMessage(nil))
	assert.Equal(t, "plain", errors.GetMessage(stderrors.New("plain")))
	assert.Equal(t, "bad dice", errors.GetMessage(errors.InvalidArgument("bad dice")))
}

func TestTransient(t *testing.T) {
	assert.True(t, errors.IsTransient(errors.Unavailable("down")))
	assert.True(t, errors.IsTransient(errors.DeadlineExceeded("slow")))
	assert.False(t, errors.IsTransient(errors.DataLoss("garbage response")))
	assert.False(t, errors.IsTransient(errors.NotFound("missing")))
	assert.False(t, errors.IsTransient(nil))
}

func TestWithMeta(t *testing.T) {
	err := errors.InvalidArgument("bad notation").WithMeta("notation", "0d20")

	assert.Equal(t, "0d20", err.Meta["notation"])
}

func TestValidationBuilder(t *testing.T) {
	t.Run("no errors returns nil", func(t *testing.T) {
		assert.NoError(t, errors.NewValidationBuilder().Build())
	})

	t.Run("collects field errors", func(t *testing.T) {
		vb := errors.NewValidationBuilder()
		vb.RequiredField("PlayerID")
		errors.ValidateRange("Sides", 0, 2, 100, vb)

		err := vb.Build()
		assert.Error(t, err)
		assert.True(t, errors.IsInvalidArgument(err))
		assert.Contains(t, err.Error(), "PlayerID")
		assert.Contains(t, err.Error(), "Sides")
	})

	t.Run("enum validation", func(t *testing.T) {
		vb := errors.NewValidationBuilder()
		errors.ValidateEnum("race", "goblin", []string{"human", "elf", "dwarf", "halfling"}, vb)

		err := vb.Build()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "must be one of")
	})
}
