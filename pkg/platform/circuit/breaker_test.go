package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newBreaker(opts ...Option) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts = append(opts, WithClock(clock.now))
	return New("test", opts...), clock
}

func TestBreaker_InitialState(t *testing.T) {
	b, _ := newBreaker()
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "test", b.Name())
	assert.True(t, b.Allow())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _ := newBreaker(WithFailureThreshold(3))

	assert.False(t, b.RecordFailure())
	assert.False(t, b.RecordFailure())
	assert.True(t, b.RecordFailure())
	assert.True(t, b.IsOpen())
	assert.False(t, b.Allow())

	// already open, no new transition
	assert.False(t, b.RecordFailure())
}

func TestBreaker_SuccessResetsFailureRun(t *testing.T) {
	b, _ := newBreaker(WithFailureThreshold(3))

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	b, clock := newBreaker(WithFailureThreshold(1), WithCooldown(time.Minute))
	b.RecordFailure()
	assert.False(t, b.Allow())

	clock.advance(time.Minute)
	assert.Equal(t, StateHalfOpen, b.State())
	assert.True(t, b.Allow(), "one trial call after cooldown")
	assert.False(t, b.Allow(), "second call waits for the trial outcome")

	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_FailedTrialReopens(t *testing.T) {
	b, clock := newBreaker(WithFailureThreshold(1), WithCooldown(time.Minute))
	b.RecordFailure()
	clock.advance(time.Minute)
	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.True(t, b.IsOpen())
	clock.advance(30 * time.Second)
	assert.False(t, b.Allow())
}

func TestBreaker_Reset(t *testing.T) {
	b, _ := newBreaker(WithFailureThreshold(1))
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
}
