package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIError_Error(t *testing.T) {
	err := HandlerFailed("email", stderrors.New("smtp down"))
	assert.Equal(t, "[HANDLER_FAILED] handler email failed: smtp down", err.Error())

	assert.Equal(t, "[NOT_FOUND] thread t1", NotFound("thread t1").Error())
}

func TestIsCode_Wrapped(t *testing.T) {
	base := LLMUnavailable(stderrors.New("503"))
	wrapped := fmt.Errorf("route: %w", base)

	assert.True(t, IsCode(wrapped, ErrCodeLLMUnavailable))
	assert.False(t, IsCode(wrapped, ErrCodeTimeout))
	assert.False(t, IsCode(stderrors.New("plain"), ErrCodeTimeout))
}

func TestGetCodeFromError(t *testing.T) {
	assert.Equal(t, ErrCodeHandlerNotFound, GetCodeFromError(HandlerNotFound("calendar"), ErrCodeServiceUnavailable))
	assert.Equal(t, ErrCodeServiceUnavailable, GetCodeFromError(stderrors.New("x"), ErrCodeServiceUnavailable))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := MemoryUnavailable(cause).WithContext("user_id", "u1")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "u1", err.Context["user_id"])
}
