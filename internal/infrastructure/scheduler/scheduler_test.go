package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
	runs int
	err  error
}

func (j *stubJob) Name() string        { return j.name }
func (j *stubJob) Description() string { return "stub job for tests" }

func (j *stubJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func TestRegister(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	job := &stubJob{name: "refresh"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))

	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Minute)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&stubJob{name: "other"}, nil), ErrNilSchedule)
}

func TestRunNow(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	job := &stubJob{name: "refresh"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "refresh")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, job.runs)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunNow_RecordsFailure(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	jobErr := errors.New("boom")
	job := &stubJob{name: "flaky", err: jobErr}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "flaky")
	assert.ErrorIs(t, err, jobErr)
	assert.False(t, result.Success)

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	require.NotNil(t, infos[0].LastResult)
	assert.False(t, infos[0].LastResult.Success)
}

func TestEnableDisable(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	require.NoError(t, s.Register(&stubJob{name: "refresh"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.DisableJob("refresh"))
	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.False(t, infos[0].Enabled)

	require.NoError(t, s.EnableJob("refresh"))
	assert.True(t, s.ListJobs()[0].Enabled)

	assert.ErrorIs(t, s.DisableJob("missing"), ErrJobNotFound)
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}
