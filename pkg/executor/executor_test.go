package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_CapturesStdout(t *testing.T) {
	out, err := New().Execute(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestExecute_FailureIncludesStderr(t *testing.T) {
	_, err := New().Execute(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestExecute_UnknownCommand(t *testing.T) {
	_, err := New().Execute(context.Background(), "definitely-not-a-command")
	assert.Error(t, err)
}

func TestExecute_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New().Execute(ctx, "sleep", "10")
	assert.Error(t, err)
}
