package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsInnerCode(t *testing.T) {
	inner := New(RoomNotFound)
	wrapped := fmt.Errorf("join: %w", inner)

	e := Wrap(wrapped, InternalServerError)
	require.NotNil(t, e)
	assert.Equal(t, RoomNotFound, e.Code)
	assert.True(t, Is(wrapped, RoomNotFound))
}

func TestWrapForeignError(t *testing.T) {
	cause := stderrors.New("connection refused")
	e := Wrap(cause, DatabaseError)

	assert.Equal(t, DatabaseError, e.Code)
	assert.ErrorIs(t, e, cause)
	assert.Equal(t, http.StatusInternalServerError, e.Code.HTTPStatus())
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, Success, GetCode(nil))
	assert.Equal(t, InternalServerError, GetCode(stderrors.New("boom")))
	assert.Equal(t, NotAuthorized, GetCode(New(NotAuthorized)))
}

func TestValidationError(t *testing.T) {
	e := ValidationError("roomCode", "is required")

	assert.Equal(t, ValidationFailed, e.Code)
	assert.Equal(t, "roomCode", e.Details["field"])
	assert.Equal(t, http.StatusBadRequest, e.Code.HTTPStatus())
	assert.Equal(t, "roomCode: is required", e.Error())
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{RoomNotFound, http.StatusNotFound},
		{NotAuthorized, http.StatusForbidden},
		{RoomFull, http.StatusConflict},
		{TokenInvalid, http.StatusUnauthorized},
		{ExecutionFailed, http.StatusUnprocessableEntity},
		{JudgeBusy, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.code.HTTPStatus(), tc.code.Message())
	}
}

func TestGetErrorWrapsForeign(t *testing.T) {
	assert.Nil(t, GetError(nil))

	e := GetError(stderrors.New("boom"))
	assert.Equal(t, InternalServerError, e.Code)
	assert.Equal(t, "boom", e.Error())

	inner := New(AlreadyInRoom)
	assert.Same(t, inner, GetError(fmt.Errorf("find match: %w", inner)))
	assert.Equal(t, http.StatusConflict, inner.Code.HTTPStatus())
}
