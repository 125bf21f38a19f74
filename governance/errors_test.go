package governance

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := reject(CodeAlreadyVoted, "vote", "ST1 on proposal 0")
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	assert.NotErrorIs(t, err, ErrAlreadyExecuted)

	wrapped := fmt.Errorf("block 3: %w", err)
	assert.ErrorIs(t, wrapped, ErrAlreadyVoted)
}

func TestError_SharedCode(t *testing.T) {
	notMet := rejectAs(ErrThresholdNotMet, "execute proposal", "proposal 0 has 10 of 50 votes")
	badValue := reject(CodeInvalidThreshold, "set voting threshold", "0 outside [1,100]")

	assert.Equal(t, CodeInvalidThreshold, notMet.Code)
	assert.ErrorIs(t, notMet, ErrThresholdNotMet)
	assert.NotErrorIs(t, notMet, ErrInvalidThreshold)
	assert.ErrorIs(t, badValue, ErrInvalidThreshold)
	assert.NotErrorIs(t, badValue, ErrThresholdNotMet)

	assert.Equal(t, ReasonThresholdNotMet, notMet.Name())
	assert.Equal(t, "invalid threshold", badValue.Name())
}

func TestError_Message(t *testing.T) {
	err := rejectAs(ErrThresholdNotMet, "execute proposal", "proposal 0 has 10 of 50 votes")
	assert.Equal(t, "execute proposal: threshold not met: proposal 0 has 10 of 50 votes", err.Error())
	assert.Equal(t, "not authorized", ErrNotAuthorized.Error())
}

func TestCodeOf(t *testing.T) {
	code, ok := CodeOf(nil)
	assert.True(t, ok)
	assert.Equal(t, CodeOK, code)

	code, ok = CodeOf(fmt.Errorf("wrapped: %w", ErrInvalidDuration))
	assert.True(t, ok)
	assert.Equal(t, CodeInvalidDuration, code)

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestCode_String(t *testing.T) {
	assert.Equal(t, "calculation error", CodeCalculationError.String())
	assert.Equal(t, "code(999)", Code(999).String())
}
