package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/tj/assert"
)

type Mock struct {
	mock.Mock
}

func (m *Mock) Task(context.Context) (bool, error) {
	args := m.Called()
	return args.Bool(0), args.Error(1)
}

var (
	errPending = errors.New("table is still deleting")
	errFatal   = errors.New("access denied")
)

// fakeClock advances only when the poller sleeps.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) policy(p Policy) Policy {
	p.Sleep = c.Sleep
	p.now = c.Now
	return p
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0)}
}

func TestFirstAttemptSucceeds(t *testing.T) {
	m := new(Mock)
	m.On("Task").Return(false, nil)
	clock := newClock()

	err := clock.policy(Fixed(time.Second, 5, 0)).Start(context.Background(), "create", m.Task)

	assert.NoError(t, err)
	m.AssertNumberOfCalls(t, "Task", 1)
	assert.Empty(t, clock.sleeps)
}

func TestRetryUntilSuccess(t *testing.T) {
	m := new(Mock)
	m.On("Task").Twice().Return(true, errPending)
	m.On("Task").Once().Return(false, nil)
	clock := newClock()

	var retries []uint64
	p := clock.policy(Fixed(time.Second, 0, time.Minute))
	p.OnRetry = func(_ context.Context, attempt uint64, err error) {
		assert.True(t, errors.Is(err, errPending))
		retries = append(retries, attempt)
	}
	err := p.Start(context.Background(), "create", m.Task)

	assert.NoError(t, err)
	m.AssertNumberOfCalls(t, "Task", 3)
	assert.Equal(t, []uint64{1, 2}, retries)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, clock.sleeps)
}

func TestFatalErrorIsNotRetried(t *testing.T) {
	m := new(Mock)
	m.On("Task").Return(false, errFatal)
	clock := newClock()

	err := clock.policy(Fixed(time.Second, 10, 0)).Start(context.Background(), "create", m.Task)

	assert.Equal(t, errFatal, err)
	assert.False(t, errors.Is(err, ErrProvisioningTimeout))
	m.AssertNumberOfCalls(t, "Task", 1)
}

func TestMaxAttempts(t *testing.T) {
	m := new(Mock)
	m.On("Task").Return(true, errPending)
	clock := newClock()

	err := clock.policy(Fixed(time.Second, 3, 0)).Start(context.Background(), "populate", m.Task)

	assert.True(t, errors.Is(err, ErrProvisioningTimeout))
	assert.True(t, errors.Is(err, errPending))
	var timeout *TimeoutError
	assert.True(t, errors.As(err, &timeout))
	assert.Equal(t, "populate", timeout.Name)
	assert.EqualValues(t, 3, timeout.Attempts)
	assert.Equal(t, 2*time.Second, timeout.Elapsed)
	m.AssertNumberOfCalls(t, "Task", 3)
}

func TestTimeout(t *testing.T) {
	m := new(Mock)
	m.On("Task").Return(true, errPending)
	clock := newClock()

	err := clock.policy(Fixed(2*time.Second, 0, 5*time.Second)).Start(context.Background(), "create", m.Task)

	assert.True(t, errors.Is(err, ErrProvisioningTimeout))
	// waits of 2s, 2s and a final 1s clipped to the deadline, then one
	// attempt at the deadline itself
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second, time.Second}, clock.sleeps)
	m.AssertNumberOfCalls(t, "Task", 4)

	var timeout *TimeoutError
	assert.True(t, errors.As(err, &timeout))
	assert.EqualValues(t, 4, timeout.Attempts)
	assert.Equal(t, 5*time.Second, timeout.Elapsed)
}

func TestSucceedsAtDeadline(t *testing.T) {
	m := new(Mock)
	m.On("Task").Return(true, errPending).Times(3)
	m.On("Task").Return(false, nil).Once()
	clock := newClock()

	err := clock.policy(Fixed(2*time.Second, 0, 5*time.Second)).Start(context.Background(), "populate", m.Task)

	assert.NoError(t, err)
	m.AssertNumberOfCalls(t, "Task", 4)
}

func TestContextCanceled(t *testing.T) {
	m := new(Mock)
	ctx, cancel := context.WithCancel(context.Background())
	m.On("Task").Run(func(mock.Arguments) { cancel() }).Return(true, errPending)
	clock := newClock()

	err := clock.policy(Fixed(time.Second, 0, 0)).Start(ctx, "create", m.Task)

	assert.True(t, errors.Is(err, context.Canceled))
	m.AssertNumberOfCalls(t, "Task", 1)
}

func TestExponentialInterval(t *testing.T) {
	p := Policy{Interval: time.Second, Exponential: true, MaxInterval: 10 * time.Second}
	assert.Equal(t, time.Second, p.interval(1))
	assert.Equal(t, 2*time.Second, p.interval(2))
	assert.Equal(t, 4*time.Second, p.interval(3))
	assert.Equal(t, 8*time.Second, p.interval(4))
	assert.Equal(t, 10*time.Second, p.interval(5))
	assert.Equal(t, 10*time.Second, p.interval(50))

	fixed := Policy{}
	assert.Equal(t, time.Second, fixed.interval(1))
	assert.Equal(t, time.Second, fixed.interval(9))
}
