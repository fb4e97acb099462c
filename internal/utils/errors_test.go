package utils

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextError_Error(t *testing.T) {
	tests := []struct {
		name     string
		context  string
		cause    error
		expected string
	}{
		{
			name:     "simple error",
			context:  "reading header",
			cause:    errors.New("invalid magic"),
			expected: "reading header: invalid magic",
		},
		{
			name:     "empty context",
			context:  "",
			cause:    errors.New("some error"),
			expected: ": some error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ContextError{Context: tt.context, Cause: tt.cause}
			require.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestWrapError(t *testing.T) {
	require.Nil(t, WrapError("nothing failed", nil))

	base := errors.New("unexpected EOF")
	level1 := WrapError("reading variable temp", base)
	level2 := WrapError("copying slab 2", level1)

	require.True(t, errors.Is(level2, base))
	require.Contains(t, level2.Error(), "copying slab 2")
	require.Contains(t, level2.Error(), "reading variable temp")

	var cerr *ContextError
	require.True(t, errors.As(level2, &cerr))
	require.Equal(t, "copying slab 2", cerr.Context)
	require.Equal(t, level1, errors.Unwrap(level2))
}

func TestKindError(t *testing.T) {
	kind := errors.New("i/o failure")

	t.Run("with cause", func(t *testing.T) {
		err := KindErrorf(kind, io.ErrUnexpectedEOF, "reading %s", "a.nc")
		require.True(t, errors.Is(err, kind))
		require.True(t, errors.Is(err, io.ErrUnexpectedEOF))
		require.Equal(t, "i/o failure: reading a.nc: unexpected EOF", err.Error())
	})

	t.Run("without cause", func(t *testing.T) {
		err := KindErrorf(kind, nil, "pattern %q", "*.nc")
		require.True(t, errors.Is(err, kind))
		require.Equal(t, `i/o failure: pattern "*.nc"`, err.Error())
	})

	t.Run("survives wrapping", func(t *testing.T) {
		err := WrapError("merge", KindErrorf(kind, nil, "x"))
		require.True(t, errors.Is(err, kind))
	})
}
