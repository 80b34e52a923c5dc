package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorIsByKind(t *testing.T) {
	t.Parallel()

	err := NewTransportError("fetch failed", errors.New("boom"))
	require.True(t, errors.Is(err, &AppError{Kind: KindTransport}))
	require.False(t, errors.Is(err, &AppError{Kind: KindDecode}))
}

func TestAppErrorUnwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("disk full")
	err := NewStorageError("write blob", inner)
	require.ErrorIs(t, err, inner)
	require.Equal(t, "write blob: disk full", err.Error())
}

func TestAsAppErrorThroughWrapping(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("sync: %w", NewNoConnectivityError())
	appErr, ok := AsAppError(err)
	require.True(t, ok)
	require.Equal(t, KindNoConnectivity, appErr.Kind)
	require.True(t, IsKind(err, KindNoConnectivity))
	require.False(t, IsKind(err, KindTransport))
}

func TestAppErrorHTTPStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, http.StatusServiceUnavailable, NewNoConnectivityError().HTTPStatus())
	require.Equal(t, http.StatusBadGateway, NewTransportError("x", nil).HTTPStatus())
	require.Equal(t, http.StatusBadGateway, NewDecodeError("x", nil).HTTPStatus())
	require.Equal(t, http.StatusInternalServerError, NewStorageError("x", nil).HTTPStatus())
	require.Equal(t, http.StatusNotFound, NewRecordNotFoundError("u").HTTPStatus())
	require.Equal(t, http.StatusBadRequest, NewValidationError("x").HTTPStatus())
}

func TestPublicMessageHidesUnsafe(t *testing.T) {
	t.Parallel()

	require.Equal(t, "internal error", NewStorageError("write blob", nil).PublicMessage())
	require.Equal(t, "no network connectivity", NewNoConnectivityError().PublicMessage())
}
