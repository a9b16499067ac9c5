package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCron(t *testing.T) {
	tests := []struct {
		spec string
		ok   bool
	}{
		{"@hourly", true},
		{"0 */15 * * * *", true},
		{"30 6 * * 1-5", true},
		{"@every 10m", true},
		{"every hour", false},
		{"61 * * * *", false},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			_, err := NewCron(tt.spec, nil, func() {})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, "invalid schedule")
			}
		})
	}
}

func TestNewCron_Runs(t *testing.T) {
	var calls atomic.Int32
	c, err := NewCron("@every 1s", nil, func() { calls.Add(1) })
	require.NoError(t, err)

	c.Start()
	defer c.Stop()
	assert.Eventually(t, func() bool { return calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
