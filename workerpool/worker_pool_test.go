package workerpool_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/lingua/workerpool"
)

// WorkerPoolTestSuite exercises the pool wrapper.
type WorkerPoolTestSuite struct {
	suite.Suite
}

func TestWorkerPoolSuite(t *testing.T) {
	suite.Run(t, &WorkerPoolTestSuite{})
}

func (s *WorkerPoolTestSuite) TestSubmitRunsTasks() {
	ctx := context.Background()
	pool, err := workerpool.New(ctx, workerpool.WithCapacity(4))
	s.Require().NoError(err)
	defer pool.Shutdown()

	const tasks = 32

	var wg sync.WaitGroup
	var ran atomic.Int64

	for range tasks {
		wg.Add(1)
		err = pool.Submit(ctx, func() {
			defer wg.Done()
			ran.Add(1)
		})
		s.Require().NoError(err)
	}
	wg.Wait()

	s.Require().EqualValues(tasks, ran.Load())
}

func (s *WorkerPoolTestSuite) TestSubmitHonoursCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	pool, err := workerpool.New(ctx, workerpool.WithCapacity(1))
	s.Require().NoError(err)
	defer pool.Shutdown()

	cancel()

	err = pool.Submit(ctx, func() {})
	s.Require().ErrorIs(err, context.Canceled)
}
