package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type status string

func (s status) String() string { return string(s) }

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", Clone(ErrDuplicateApplication, "already applied"))

	got := FromError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeDuplicate, got.Code)
	assert.Equal(t, http.StatusConflict, got.Status)
	assert.Equal(t, "already applied", got.Message)
}

func TestFromErrorWrapsUnknownAsInternal(t *testing.T) {
	got := FromError(stdErrors.New("boom"))
	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Nil(t, FromError(nil))
}

func TestClonesMatchOriginalWithErrorsIs(t *testing.T) {
	err := Transition("assignment", status("rejected"), status("completed"))
	assert.True(t, stdErrors.Is(err, ErrInvalidStateTransition))
	assert.False(t, stdErrors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "rejected to completed")
}
