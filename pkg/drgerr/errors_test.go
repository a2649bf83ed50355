package drgerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageByKind(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "plain message",
			err:      New(Lookup, "symbol %q not found", "foo"),
			expected: `symbol "foo" not found`,
		},
		{
			name:     "os error concatenates message, path and errno",
			err:      OSError("failed to open", "/bin/true", errors.New("permission denied")),
			expected: "failed to open: /bin/true: permission denied",
		},
		{
			name:     "os error without path",
			err:      OSError("failed to read", "", errors.New("short read")),
			expected: "failed to read: short read",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestIsMatchesKindThroughWrap(t *testing.T) {
	cause := New(Fault, "bad address")
	wrapped := Wrap(Type, cause, "cannot format faulting pointer")

	assert.True(t, Is(wrapped, Type))
	assert.False(t, Is(wrapped, Fault))
	assert.True(t, errors.Is(wrapped, cause))
}

func TestSentinelsAreStable(t *testing.T) {
	assert.Equal(t, OutOfMemory, OutOfMemoryErr.Kind)
	assert.Equal(t, Stop, StopErr.Kind)
}
