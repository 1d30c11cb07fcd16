package errcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type serverErr struct{ msg string }

func (e *serverErr) Error() string       { return "server: " + e.msg }
func (e *serverErr) UserMessage() string { return e.msg }

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindAuth, KindOf(ErrLoginRequired))
	assert.Equal(t, KindValidation, KindOf(fmt.Errorf("send: %w", ErrEmptyMessage)))
	assert.Equal(t, KindAPI, KindOf(errors.New("dial tcp: refused")))
	assert.Equal(t, KindAPI, KindOf(ErrRequestFailed.Wrap(errors.New("boom"))))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Post not found", UserMessage(fmt.Errorf("accept: %w", &serverErr{msg: "Post not found"})))
	assert.Equal(t, GenericMessage, UserMessage(&serverErr{}))
	assert.Equal(t, GenericMessage, UserMessage(errors.New("dial tcp: refused")))
	assert.Equal(t, "Please login to continue", UserMessage(ErrLoginRequired))
}

func TestError_IsMatchesWrappedCopies(t *testing.T) {
	wrapped := ErrFileTooLarge.Wrap(errors.New("6291456 bytes"))
	assert.True(t, errors.Is(wrapped, ErrFileTooLarge))
	assert.False(t, errors.Is(wrapped, ErrNotImage))
	assert.Contains(t, wrapped.Error(), "6291456 bytes")

	custom := ErrInvalidParam.WithMsg("title is required")
	assert.True(t, errors.Is(custom, ErrInvalidParam))
	assert.Equal(t, "title is required", UserMessage(custom))
}
