package schedule

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type countJob struct {
	name    string
	runs    atomic.Int32
	block   chan struct{}
	started chan struct{}
}

func (j *countJob) Name() string { return j.name }

func (j *countJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.started != nil {
		close(j.started)
	}
	if j.block != nil {
		<-j.block
	}
	return nil
}

func TestAddJobRejectsDuplicatesAndBadSpecs(t *testing.T) {
	s := NewCronScheduler()
	require.NoError(t, s.AddJob(&countJob{name: "a"}, "*/5 * * * *"))
	require.Error(t, s.AddJob(&countJob{name: "a"}, "*/5 * * * *"))
	require.Error(t, s.AddJob(&countJob{name: "b"}, "not a spec"))
	require.NoError(t, s.AddJob(&countJob{name: "c"}, "@hourly"))
}

func TestWrapSkipsOverlappingRuns(t *testing.T) {
	s := NewCronScheduler()
	job := &countJob{name: "slow", block: make(chan struct{}), started: make(chan struct{})}
	run := s.wrap(job, "* * * * *")

	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	<-job.started
	run()
	close(job.block)
	<-done
	require.EqualValues(t, 1, job.runs.Load())
}

func TestWrapSkipsAfterShutdown(t *testing.T) {
	s := NewCronScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	defer s.Stop()
	cancel()

	job := &countJob{name: "late"}
	s.wrap(job, "* * * * *")()
	require.Zero(t, job.runs.Load())
}
