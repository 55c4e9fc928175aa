package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRef = time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)

// fixedClock pins the scheduler's notion of "now" for registry-only tests.
func fixedClock() func() time.Time {
	return func() time.Time { return testRef }
}

func noopDeliver(_ context.Context, _ Task) error { return nil }

func TestSchedule_AssignsSequentialIDs(t *testing.T) {
	s := New(Options{Now: fixedClock()})
	defer s.Stop()

	id1, err := s.Schedule(testRef.Add(time.Hour), "user1", "chan1", "first", noopDeliver)
	require.NoError(t, err)
	id2, err := s.Schedule(testRef.Add(2*time.Hour), "user1", "chan1", "second", noopDeliver)
	require.NoError(t, err)

	assert.Equal(t, "reminder_1", id1)
	assert.Equal(t, "reminder_2", id2)
}

func TestSchedule_RejectsPastTime(t *testing.T) {
	s := New(Options{Now: fixedClock()})
	defer s.Stop()

	_, err := s.Schedule(testRef.Add(-time.Minute), "user1", "chan1", "late", noopDeliver)
	assert.ErrorIs(t, err, ErrPastFireTime)

	// Exactly "now" is not after now.
	_, err = s.Schedule(testRef, "user1", "chan1", "now", noopDeliver)
	assert.ErrorIs(t, err, ErrPastFireTime)
}

func TestSchedule_RequiresDeliverFunc(t *testing.T) {
	s := New(Options{Now: fixedClock()})
	defer s.Stop()

	_, err := s.Schedule(testRef.Add(time.Hour), "user1", "chan1", "msg", nil)
	assert.Error(t, err)
}

func TestCancel_OwnerSemantics(t *testing.T) {
	s := New(Options{Now: fixedClock()})
	defer s.Stop()

	id, err := s.Schedule(testRef.Add(time.Hour), "user1", "chan1", "msg", noopDeliver)
	require.NoError(t, err)

	t.Run("non-owner cancel fails and task stays pending", func(t *testing.T) {
		assert.False(t, s.Cancel(id, "user2"))

		pending := s.Pending("")
		require.Len(t, pending, 1)
		assert.Equal(t, id, pending[0].ID)
	})

	t.Run("owner cancel succeeds and removes the task", func(t *testing.T) {
		assert.True(t, s.Cancel(id, "user1"))
		assert.Empty(t, s.Pending(""))
	})

	t.Run("second cancel fails", func(t *testing.T) {
		assert.False(t, s.Cancel(id, "user1"))
	})

	t.Run("unknown task fails", func(t *testing.T) {
		assert.False(t, s.Cancel("reminder_999", "user1"))
	})
}

func TestPending_SortedAndFiltered(t *testing.T) {
	s := New(Options{Now: fixedClock()})
	defer s.Stop()

	// Scheduled out of fire-time order on purpose.
	_, err := s.Schedule(testRef.Add(3*time.Hour), "user1", "chan1", "third", noopDeliver)
	require.NoError(t, err)
	_, err = s.Schedule(testRef.Add(time.Hour), "user2", "chan1", "first", noopDeliver)
	require.NoError(t, err)
	_, err = s.Schedule(testRef.Add(2*time.Hour), "user1", "chan1", "second", noopDeliver)
	require.NoError(t, err)

	t.Run("global view is sorted by fire time", func(t *testing.T) {
		all := s.Pending("")
		require.Len(t, all, 3)
		assert.Equal(t, "first", all[0].Message)
		assert.Equal(t, "second", all[1].Message)
		assert.Equal(t, "third", all[2].Message)
	})

	t.Run("owner filter", func(t *testing.T) {
		mine := s.Pending("user1")
		require.Len(t, mine, 2)
		assert.Equal(t, "second", mine[0].Message)
		assert.Equal(t, "third", mine[1].Message)
	})

	t.Run("snapshot is independent of registry state", func(t *testing.T) {
		snap := s.Pending("")
		snap[0].Message = "mutated"
		assert.Equal(t, "first", s.Pending("")[0].Message)
	})
}

func TestFire_DeliversExactlyOnce(t *testing.T) {
	s := New(Options{})
	defer s.Stop()

	var calls int32
	fired := make(chan Task, 1)
	deliver := func(_ context.Context, task Task) error {
		atomic.AddInt32(&calls, 1)
		fired <- task
		return nil
	}

	id, err := s.Schedule(time.Now().Add(20*time.Millisecond), "user1", "chan1", "do it", deliver)
	require.NoError(t, err)

	select {
	case task := <-fired:
		assert.Equal(t, id, task.ID)
		assert.Equal(t, "user1", task.OwnerID)
		assert.Equal(t, "chan1", task.ChannelID)
		assert.Equal(t, "do it", task.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("reminder never fired")
	}

	// Let any erroneous duplicate timer run.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	assert.Empty(t, s.Pending(""))
	assert.False(t, s.Cancel(id, "user1"), "cancel after fire must fail")
}

func TestFire_SkipsCanceledTask(t *testing.T) {
	s := New(Options{})
	defer s.Stop()

	var calls int32
	deliver := func(_ context.Context, _ Task) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}

	id, err := s.Schedule(time.Now().Add(30*time.Millisecond), "user1", "chan1", "msg", deliver)
	require.NoError(t, err)
	require.True(t, s.Cancel(id, "user1"))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestFire_DeliveryErrorReachesHook(t *testing.T) {
	deliveryErr := errors.New("channel gone")

	hooked := make(chan error, 1)
	s := New(Options{
		OnDeliveryError: func(_ Task, err error) { hooked <- err },
	})
	defer s.Stop()

	deliver := func(_ context.Context, _ Task) error { return deliveryErr }

	_, err := s.Schedule(time.Now().Add(20*time.Millisecond), "user1", "chan1", "msg", deliver)
	require.NoError(t, err)

	select {
	case got := <-hooked:
		assert.ErrorIs(t, got, deliveryErr)
	case <-time.After(2 * time.Second):
		t.Fatal("error hook never invoked")
	}

	// Failed delivery still counts as fired; the task is gone.
	assert.Empty(t, s.Pending(""))
}

func TestScheduler_ConcurrentUse(t *testing.T) {
	s := New(Options{})
	defer s.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			owner := fmt.Sprintf("user%d", n%3)
			for j := 0; j < 20; j++ {
				id, err := s.Schedule(time.Now().Add(time.Hour), owner, "chan1", "msg", noopDeliver)
				assert.NoError(t, err)
				s.Pending(owner)
				if j%2 == 0 {
					s.Cancel(id, owner)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, len(s.Pending("")))
}

func TestStop_RejectsNewWork(t *testing.T) {
	s := New(Options{})

	var calls int32
	deliver := func(_ context.Context, _ Task) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}

	_, err := s.Schedule(time.Now().Add(30*time.Millisecond), "user1", "chan1", "msg", deliver)
	require.NoError(t, err)

	s.Stop()

	_, err = s.Schedule(time.Now().Add(time.Hour), "user1", "chan1", "msg", deliver)
	assert.ErrorIs(t, err, ErrStopped)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "stopped scheduler must not fire")
}
