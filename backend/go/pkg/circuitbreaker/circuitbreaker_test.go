package circuitbreaker

import (
	"SafetyCompliance/backend/go/internal/config"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fail() (interface{}, error) { return nil, errBoom }
func ok() (interface{}, error)   { return "ok", nil }

func TestBreaker_TripsAndRecovers(t *testing.T) {
	now := time.Unix(0, 0)
	cb := newBreaker(2, 1, time.Minute, func() time.Time { return now })

	_, err := cb.Execute(fail)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, Closed, cb.State())
	_, _ = cb.Execute(fail)
	assert.Equal(t, Open, cb.State())

	_, err = cb.Execute(ok)
	assert.ErrorIs(t, err, ErrCircuitOpen)

	now = now.Add(2 * time.Minute)
	res, err := cb.Execute(ok)
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, Closed, cb.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(0, 0)
	cb := newBreaker(1, 2, time.Second, func() time.Time { return now })
	_, _ = cb.Execute(fail)
	now = now.Add(2 * time.Second)
	_, err := cb.Execute(fail)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, Open, cb.State())
}

func TestFromConfig(t *testing.T) {
	_, err := FromConfig(config.CircuitBreakerConfig{Timeout: "soon"})
	assert.Error(t, err)

	cb, err := FromConfig(config.CircuitBreakerConfig{FailureThreshold: 3, Timeout: "10s"})
	require.NoError(t, err)
	assert.Equal(t, Closed, cb.State())
	assert.Equal(t, "Half-Open", HalfOpen.String())
}
