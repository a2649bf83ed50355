package drgolog

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutLogFile(t *testing.T) {
	l, err := New(Config{Level: slog.LevelInfo, NoColor: true})
	require.NoError(t, err)
	assert.NotNil(t, l.Logger)
}

func TestNewWithLogFile(t *testing.T) {
	l, err := New(Config{Level: slog.LevelInfo, LogFile: t.TempDir() + "/drgo.log", NoColor: true})
	require.NoError(t, err)
	assert.NotNil(t, l.Logger)
}

func TestOperationAddsAttribute(t *testing.T) {
	l, err := New(Config{Level: slog.LevelInfo, NoColor: true})
	require.NoError(t, err)

	child := l.Operation("index-update", slog.String("file", "a.debug"))
	assert.NotSame(t, l, child)
}

func TestFromContextDefaultsToDiscard(t *testing.T) {
	l := FromContext(context.Background())
	assert.NotNil(t, l.Logger)
}

func TestWithContextRoundTrips(t *testing.T) {
	l, err := New(Config{Level: slog.LevelInfo, NoColor: true})
	require.NoError(t, err)

	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
