package shutdown

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestContextCancelledBySignal(t *testing.T) {
	h := NewHandler(time.Second, zaptest.NewLogger(t)).WithSignals(syscall.SIGUSR1)

	ctx, cancel := h.Context(context.Background())
	defer cancel()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled by the signal")
	}
}

func TestContextCancelledByParent(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	h := NewHandler(time.Second, nil)

	ctx, cancel := h.Context(parent)
	defer cancel()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context did not follow its parent")
	}
}

func TestCleanupRunsInReverseOrder(t *testing.T) {
	h := NewHandler(time.Second, zaptest.NewLogger(t))

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		h.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, h.Cleanup())
	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestCleanupCollectsErrors(t *testing.T) {
	h := NewHandler(time.Second, zaptest.NewLogger(t))
	boom := errors.New("boom")

	ran := false
	h.Register("ok", func(context.Context) error {
		ran = true
		return nil
	})
	h.Register("broken", func(context.Context) error { return boom })

	err := h.Cleanup()
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
	assert.True(t, ran, "a failing cleanup does not stop the rest")
}

func TestCleanupTimeout(t *testing.T) {
	h := NewHandler(10*time.Millisecond, zaptest.NewLogger(t))

	skipped := true
	h.Register("skipped", func(context.Context) error {
		skipped = false
		return nil
	})
	h.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := h.Cleanup()
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, skipped)
}
