package retry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, ModeLinear, p.Mode)
	assert.Equal(t, 50*time.Millisecond, p.Initial)
	assert.Equal(t, time.Second, p.Max)
	assert.Equal(t, 2, p.MaxRetries)
	require.NoError(t, p.Validate())
	require.NoError(t, None().Validate())
}

// Initial larger than max is clamped.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(ModeFixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, ModeFixed, p.Mode)
	assert.Equal(t, 5, p.MaxRetries)

	p = NewPolicy("bogus", 0, 0, -1)
	assert.Equal(t, DefaultPolicy(), p)
}

func TestDelayModes(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		mode Mode
		want []time.Duration
	}{
		{ModeFixed, []time.Duration{100 * ms, 100 * ms, 100 * ms}},
		{ModeLinear, []time.Duration{100 * ms, 200 * ms, 250 * ms, 250 * ms}},
		{ModeExponential, []time.Duration{100 * ms, 200 * ms, 250 * ms}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			p := NewPolicy(tt.mode, 100*ms, 250*ms, 3)
			assert.Zero(t, p.Delay(0))
			for i, want := range tt.want {
				assert.Equal(t, want, p.Delay(i+1), "attempt %d", i+1)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Exponential ")
	require.NoError(t, err)
	assert.Equal(t, ModeExponential, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeLinear, m)

	_, err = ParseMode("random")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Policy{Initial: 0, Max: time.Second}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: 0}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
}

func TestDoRetriesTransientErrors(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	attempts, err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("busy")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoGivesUp(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Millisecond, time.Millisecond, 2)
	attempts, err := p.Do(context.Background(), func() error { return errors.New("busy") })
	require.Error(t, err)
	assert.Equal(t, 3, attempts)

	attempts, err = None().Do(context.Background(), func() error { return errors.New("busy") })
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Millisecond, time.Millisecond, 5)
	attempts, err := p.Do(context.Background(), func() error {
		return fmt.Errorf("open: %w", fs.ErrNotExist)
	})
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, 1, attempts)
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPolicy(ModeFixed, time.Hour, time.Hour, 5)
	attempts, err := p.Do(ctx, func() error { return errors.New("busy") })
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
