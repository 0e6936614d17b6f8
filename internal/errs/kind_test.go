package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_IsMapsKindsToSentinels(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Validation("bad %s", "file"), ErrValidation)
	require.ErrorIs(t, &Error{Kind: KindUnauthorized, Status: 401, Message: "Token is missing"}, ErrUnauthorized)
	require.ErrorIs(t, &Error{Kind: KindNotFound, Status: 404, Message: "Letter not found"}, ErrNotFound)
	require.NotErrorIs(t, &Error{Kind: KindResponse, Status: 500, Message: "boom"}, ErrNotFound)
}

func TestError_MessageFormatting(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Letter not found (404)", (&Error{Kind: KindNotFound, Status: 404, Message: "Letter not found"}).Error())
	require.Equal(t, "bad file", Validation("bad file").Error())
}

func TestTransport_ClassifiesCancellation(t *testing.T) {
	t.Parallel()

	require.Equal(t, KindCanceled, Transport(context.Canceled).Kind)
	require.Equal(t, KindCanceled, Transport(fmt.Errorf("do: %w", context.DeadlineExceeded)).Kind)
	e := Transport(errors.New("connection refused"))
	require.Equal(t, KindTransport, e.Kind)
	require.Equal(t, "connection refused", e.Message)
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("stage upload: %w", &Error{Kind: KindResponse, Status: 413, Message: "too large"})
	require.Equal(t, KindResponse, KindOf(wrapped))
	require.Equal(t, "too large", Message(wrapped))
	require.Equal(t, KindUnauthorized, KindOf(ErrNoSession))
	require.Equal(t, KindCanceled, KindOf(context.Canceled))
	require.Equal(t, KindUnknown, KindOf(errors.New("x")))
	require.Equal(t, Kind(""), KindOf(nil))
}

func TestInvalid(t *testing.T) {
	t.Parallel()

	require.NoError(t, Invalid(nil))
	err := Invalid(errors.New("language: must be a valid value."))
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, KindValidation, KindOf(err))
	require.Equal(t, "language: must be a valid value.", Message(err))
}
