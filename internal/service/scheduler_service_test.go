package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("09:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 9 * * *", spec)

	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd", "1:2:3"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestBuildIntervalSpec(t *testing.T) {
	spec, err := buildIntervalSpec(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "@every 3600s", spec)

	spec, err = buildIntervalSpec(100 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "@every 1s", spec)

	_, err = buildIntervalSpec(0)
	assert.Error(t, err)
}

type jobLog map[string][]error

func (j jobLog) RecordJob(name string, err error) { j[name] = append(j[name], err) }

func TestSchedulerWrapLogsFailures(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	runs := jobLog{}
	s := NewSchedulerService(time.UTC, log, time.Second).WithObserver(runs)

	s.wrap("purge", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return errors.New("boom")
	})()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "purge", entry.Data["job"])
	assert.EqualError(t, entry.Data[logrus.ErrorKey].(error), "boom")

	hook.Reset()
	s.wrap("ok", func(context.Context) error { return nil })()
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)

	require.Len(t, runs["purge"], 1)
	assert.Error(t, runs["purge"][0])
	require.Len(t, runs["ok"], 1)
	assert.NoError(t, runs["ok"][0])
}

func TestSchedulerRejectsBadSchedules(t *testing.T) {
	s := NewSchedulerService(time.UTC, logrus.New(), 0)
	noop := func(context.Context) error { return nil }

	_, err := s.ScheduleDaily("report", "25:00", noop)
	assert.Error(t, err)
	_, err = s.ScheduleInterval("purge", -time.Second, noop)
	assert.Error(t, err)

	_, err = s.ScheduleDaily("report", "08:15", noop)
	assert.NoError(t, err)
	_, err = s.ScheduleInterval("purge", time.Minute, noop)
	assert.NoError(t, err)
}
