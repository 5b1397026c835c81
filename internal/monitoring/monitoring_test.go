package monitoring

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingPruner struct {
	calls int32
	err   error
}

func (p *countingPruner) PruneExpired(context.Context) (int64, error) {
	atomic.AddInt32(&p.calls, 1)
	return 3, p.err
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler("every now and then", &countingPruner{})
	require.Error(t, err)
}

func TestScheduler_RunsPruner(t *testing.T) {
	p := &countingPruner{}
	s, err := NewScheduler("@every 1s", p)
	require.NoError(t, err)

	s.Run()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&p.calls) > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestScheduler_PruneErrorIsLogged(t *testing.T) {
	p := &countingPruner{err: errors.New("db locked")}
	s, err := NewScheduler("@hourly", p)
	require.NoError(t, err)

	s.pruneSessions()
	require.Equal(t, int32(1), atomic.LoadInt32(&p.calls))
}

func TestStatUpdater_KeepsLatestSample(t *testing.T) {
	su := NewStatUpdater(10 * time.Millisecond)
	var n int32
	su.sample = func(context.Context) (HostStats, error) {
		i := atomic.AddInt32(&n, 1)
		if i == 2 {
			return HostStats{}, errors.New("transient")
		}
		return HostStats{CPUPercent: float64(i), SampledAt: time.Now()}, nil
	}

	require.True(t, su.Latest().SampledAt.IsZero())

	go su.Run()
	require.Eventually(t, func() bool { return su.Latest().CPUPercent >= 3 }, time.Second, 5*time.Millisecond)
	su.Stop()
	su.Stop()
}
