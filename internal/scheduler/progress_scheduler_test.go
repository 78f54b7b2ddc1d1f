package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) RefreshCurrentMonth(ctx context.Context) (int, error) {
	r.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("refresh must run with a deadline")
	}
	return 3, r.err
}

func TestProgressScheduler_Refresh(t *testing.T) {
	refresher := &countingRefresher{}
	s := NewProgressScheduler("0 * * * *", refresher)

	s.refresh()
	assert.Equal(t, int32(1), refresher.calls.Load())

	refresher.err = errors.New("redis down")
	s.refresh()
	assert.Equal(t, int32(2), refresher.calls.Load())
}

func TestProgressScheduler_StartStop(t *testing.T) {
	s := NewProgressScheduler("*/5 * * * *", &countingRefresher{})

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}

func TestProgressScheduler_InvalidSpec(t *testing.T) {
	s := NewProgressScheduler("every hour", &countingRefresher{})
	assert.Error(t, s.Start())
}
