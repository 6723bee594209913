package worker_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/worker"
)

type loopWorker struct {
	*worker.BaseWorker
	started atomic.Bool
}

func newLoopWorker(name string) *loopWorker {
	return &loopWorker{BaseWorker: worker.NewBaseWorker(name, zap.NewNop())}
}

func (w *loopWorker) Start(ctx context.Context) error {
	w.started.Store(true)
	select {
	case <-w.StopChan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type stuckWorker struct {
	*worker.BaseWorker
}

func (w *stuckWorker) Start(context.Context) error {
	time.Sleep(time.Second)
	return nil
}

func TestWorkerManager_StartStop(t *testing.T) {
	a, b := newLoopWorker("a"), newLoopWorker("b")

	m := worker.NewWorkerManager(time.Second, zap.NewNop())
	m.Register(a)
	m.Register(b)

	require.NoError(t, m.Start(context.Background()))
	require.Eventually(t, func() bool { return a.started.Load() && b.started.Load() }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.True(t, a.IsStopped())
	assert.True(t, b.IsStopped())
}

func TestWorkerManager_NoWorkers(t *testing.T) {
	m := worker.NewWorkerManager(time.Second, zap.NewNop())
	assert.Error(t, m.Start(context.Background()))
}

func TestWorkerManager_StopTimeout(t *testing.T) {
	m := worker.NewWorkerManager(20*time.Millisecond, zap.NewNop())
	m.Register(&stuckWorker{BaseWorker: worker.NewBaseWorker("stuck", zap.NewNop())})

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Stop())
}

func TestBaseWorker_StopIsIdempotent(t *testing.T) {
	w := worker.NewBaseWorker("sync-requests", zap.NewNop())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.True(t, w.IsStopped())
	assert.Equal(t, "sync-requests", w.Name())

	select {
	case <-w.StopChan():
	default:
		t.Fatal("stop channel must be closed")
	}
}

func TestConsumerName(t *testing.T) {
	name := worker.ConsumerName()
	assert.True(t, strings.Contains(name, "-"), name)
}
