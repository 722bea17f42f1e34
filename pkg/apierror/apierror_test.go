package apierror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormatsMessage(t *testing.T) {
	err := New(KindNotFound, "image not found")
	assert.Equal(t, "not_found: image not found", err.Error())
}

func TestWithDetailsAppendsContext(t *testing.T) {
	err := New(KindConflict, "job already running")
	same := err.WithDetails("job-123")
	require.Same(t, err, same)
	assert.Equal(t, "conflict: job already running (job-123)", err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("bolt: bucket not found")
	err := Wrap(cause, KindInternal, "load reaction")
	assert.ErrorIs(t, err, cause)
}

func TestExitCodeTable(t *testing.T) {
	cases := []struct {
		kind Kind
		code int
	}{
		{KindBadRequest, 64},
		{KindAuth, 2},
		{KindNotFound, 3},
		{KindConflict, 4},
		{KindPermission, 5},
		{KindUnavailable, 1},
		{KindInternal, 1},
	}
	for _, tc := range cases {
		err := New(tc.kind, "x")
		assert.Equal(t, tc.code, err.ExitCode(), "kind %s", tc.kind)
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := NewNotFound("pipeline")
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindConflict))
	assert.False(t, Is(errors.New("plain"), KindNotFound))
}
