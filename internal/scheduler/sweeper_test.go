package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
)

type countingCompleter struct {
	calls atomic.Int32
	err   error
}

func (c *countingCompleter) CompleteElapsed(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetLevel(log.OFF)
	return l
}

func TestSweeper_TicksUntilCancelled(t *testing.T) {
	target := &countingCompleter{}
	s := New(target, 10*time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return target.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeper_SweepsImmediatelyAndSurvivesErrors(t *testing.T) {
	target := &countingCompleter{err: errors.New("db down")}
	s := New(target, time.Hour, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	assert.Eventually(t, func() bool { return target.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}
