package effects_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/corestore/corestore/effects"
)

type testLogger struct {
	errors int32
}

func (l *testLogger) Error(string, ...any) { atomic.AddInt32(&l.errors, 1) }
func (l *testLogger) Debug(string, ...any) {}

func TestPoolRunsEverySubmittedTask(t *testing.T) {
	pool := effects.New(3, nil)

	var wg sync.WaitGroup
	var count int32
	n := 50
	wg.Add(n)
	for i := 0; i < n; i++ {
		pool.Submit(effects.NewTask(func() {
			atomic.AddInt32(&count, 1)
			wg.Done()
		}))
	}
	wg.Wait()
	assert.Equal(t, int32(n), atomic.LoadInt32(&count))
	pool.Close()
}

func TestPoolIsolatesPanickingHandlers(t *testing.T) {
	logger := &testLogger{}
	pool := effects.New(2, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	pool.Submit(effects.NewTask(func() {
		panic("boom")
	}))

	var ran int32
	pool.Submit(effects.NewTask(func() {
		atomic.AddInt32(&ran, 1)
		wg.Done()
	}))

	wg.Wait()
	assert.Equal(t, int32(1), ran)
	pool.Close()
	assert.GreaterOrEqual(t, atomic.LoadInt32(&logger.errors), int32(1))
}

func TestPoolIdleReflectsOutstandingTasks(t *testing.T) {
	pool := effects.New(1, nil)
	release := make(chan struct{})
	started := make(chan struct{})

	pool.Submit(effects.NewTask(func() {
		close(started)
		<-release
	}))

	<-started
	assert.False(t, pool.Idle())
	close(release)

	assert.Eventually(t, pool.Idle, time.Second, time.Millisecond)
	pool.Close()
}

func TestPoolCloseIsIdempotent(t *testing.T) {
	pool := effects.New(2, nil)
	pool.Close()
	pool.Close()
}
