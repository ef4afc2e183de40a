package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Code(nil))
	require.Equal(t, CodeNotFound, Code(NotFound("country %s", "abc")))
	require.Equal(t, CodeInvalidArgument, Code(InvalidArgument("lat %f", 91.0)))
	require.Equal(t, CodeUnavailable, Code(Unavailable("fetch all", errors.New("dial tcp"))))
	require.Equal(t, CodeInternal, Code(errors.New("boom")))
}

func TestUnavailableKeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := fmt.Errorf("nearby: %w", Unavailable("fetch all", cause))

	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, cause)
	require.ErrorContains(t, err, "fetch all")
}
