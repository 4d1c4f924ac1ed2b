package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerEnqueuesOnTick(t *testing.T) {
	fired := make(chan string, 4)
	q := NewQueue("scheduled", func(ctx context.Context, job Job) error {
		fired <- job.Type
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	s := NewScheduler(nil)
	require.NoError(t, s.Schedule("@every 1s", q, "outbox.relay"))
	s.Start()
	defer s.Stop(context.Background())

	select {
	case jobType := <-fired:
		assert.Equal(t, "outbox.relay", jobType)
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job never ran")
	}
}

func TestSchedulerRejectsInvalidSpec(t *testing.T) {
	q := NewQueue("scheduled", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	s := NewScheduler(nil)
	assert.Error(t, s.Schedule("", q, "x"))
	assert.Error(t, s.Schedule("every sometimes", q, "x"))
}
