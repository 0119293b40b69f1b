package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fastConfig() Config {
	return Config{
		Interval:      10 * time.Millisecond,
		JobTimeout:    time.Second,
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
		RunOnStart:    true,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero interval", func(c *Config) { c.Interval = 0 }, true},
		{"zero timeout", func(c *Config) { c.JobTimeout = 0 }, true},
		{"negative retries", func(c *Config) { c.RetryAttempts = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduler_RunsTasksPeriodically(t *testing.T) {
	s, err := New(fastConfig(), zap.NewNop())
	require.NoError(t, err)

	var runs atomic.Int32
	require.NoError(t, s.Register(TaskFunc("reference-refresh", func(context.Context) error {
		runs.Add(1)
		return nil
	})))

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	rec, ok := s.Record("reference-refresh")
	require.True(t, ok)
	assert.Equal(t, JobStatusSuccess, rec.Status)
	assert.Equal(t, 1, rec.Attempts)

	stopped := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())
}

func TestScheduler_RetriesThenFails(t *testing.T) {
	cfg := fastConfig()
	cfg.Interval = time.Hour
	s, err := New(cfg, nil)
	require.NoError(t, err)

	var attempts atomic.Int32
	require.NoError(t, s.Register(TaskFunc("flaky", func(context.Context) error {
		attempts.Add(1)
		return errors.New("redis unavailable")
	})))

	s.Start(context.Background())
	defer func() { _ = s.Stop(context.Background()) }()

	assert.Eventually(t, func() bool {
		rec, _ := s.Record("flaky")
		return rec.Status == JobStatusFailed
	}, time.Second, 5*time.Millisecond)

	rec, _ := s.Record("flaky")
	assert.Equal(t, 2, rec.Attempts)
	assert.Equal(t, "redis unavailable", rec.Error)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestScheduler_Register(t *testing.T) {
	s, err := New(fastConfig(), nil)
	require.NoError(t, err)

	noop := func(context.Context) error { return nil }
	require.NoError(t, s.Register(TaskFunc("a", noop)))
	assert.ErrorIs(t, s.Register(TaskFunc("a", noop)), ErrDuplicateTask)

	rec, ok := s.Record("a")
	require.True(t, ok)
	assert.Equal(t, JobStatusPending, rec.Status)

	s.Start(context.Background())
	defer func() { _ = s.Stop(context.Background()) }()
	assert.ErrorIs(t, s.Register(TaskFunc("b", noop)), ErrSchedulerRunning)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s, err := New(fastConfig(), nil)
	require.NoError(t, err)
	assert.NoError(t, s.Stop(context.Background()))
}
