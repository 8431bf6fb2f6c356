package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingPruner struct {
	mu    sync.Mutex
	calls int
	days  []int
	err   error
}

func (p *countingPruner) PruneExpired(_ context.Context, days int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.days = append(p.days, days)
	return 1, p.err
}

func (p *countingPruner) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestRun_PrunesImmediatelyAndOnTick(t *testing.T) {
	p := &countingPruner{}
	s := NewScheduler(p, 5*time.Millisecond, 30, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return p.count() >= 3 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range p.days {
		assert.Equal(t, 30, d)
	}
}

func TestStartStop(t *testing.T) {
	p := &countingPruner{}
	s := NewScheduler(p, time.Hour, 7, nil)

	s.Start()
	require.Eventually(t, func() bool { return p.count() == 1 }, time.Second, time.Millisecond)
	s.Stop()

	assert.Equal(t, 1, p.count())
}

func TestRun_ErrorsDoNotStopLoop(t *testing.T) {
	p := &countingPruner{err: errors.New("disk full")}
	s := NewScheduler(p, 2*time.Millisecond, 1, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	require.Eventually(t, func() bool { return p.count() >= 2 }, time.Second, time.Millisecond)
	cancel()
	<-s.done
}
