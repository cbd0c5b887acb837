package grid

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmesh/voltmesh/core"
	"github.com/voltmesh/voltmesh/logging"
)

func newTestSource(hour int, seed int64) *SimulatedSource {
	fixed := time.Date(2026, time.March, 10, hour, 0, 0, 0, time.UTC)
	return NewSimulatedSource(func(o *SimulatedSourceOptions) {
		o.Now = func() time.Time { return fixed }
		o.Rand = rand.New(rand.NewSource(seed))
	})
}

func TestSimulatedSource_CurrentPeakPricing(t *testing.T) {
	src := newTestSource(18, 1) // 18:00 is inside the 16-20 peak
	sig, err := src.Current(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, basePricePerKWh*1.5, sig.PricePerKWh, 1e-9)
	assert.GreaterOrEqual(t, sig.GridAvailability, minGridAvailability)
	assert.LessOrEqual(t, sig.GridAvailability, 1.0)
}

func TestSimulatedSource_CurrentNightCarbon(t *testing.T) {
	src := newTestSource(2, 1) // 02:00 is off-peak
	sig, err := src.Current(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, sig.CarbonIntensity, 150.0)
	assert.LessOrEqual(t, sig.CarbonIntensity, 250.0)
}

func TestSimulatedSource_ForecastShape(t *testing.T) {
	src := newTestSource(8, 7)
	forecast, err := src.Forecast(context.Background(), 24)
	require.NoError(t, err)
	require.Len(t, forecast, 24)

	start := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	for i, sig := range forecast {
		assert.Equal(t, start.Add(time.Duration(i)*time.Hour), sig.Timestamp)
		assert.Positive(t, sig.PricePerKWh)
		assert.Positive(t, sig.CarbonIntensity)
		if sig.P415Active {
			assert.Equal(t, p415RevenuePerKWh, sig.P415RevenuePerKWh)
		} else {
			assert.Zero(t, sig.P415RevenuePerKWh)
		}
	}
}

func TestSimulatedSource_ForecastHourBands(t *testing.T) {
	src := newTestSource(0, 99)
	forecast, err := src.Forecast(context.Background(), 24)
	require.NoError(t, err)

	for _, sig := range forecast {
		h := sig.Timestamp.Hour()
		switch {
		case h >= peakStartHour && h <= peakEndHour:
			assert.GreaterOrEqual(t, sig.PricePerKWh, 0.30)
			assert.LessOrEqual(t, sig.PricePerKWh, 0.45)
		case h >= offPeakStartHour || h <= offPeakEndHour:
			assert.GreaterOrEqual(t, sig.PricePerKWh, 0.15)
			assert.LessOrEqual(t, sig.PricePerKWh, 0.25)
		default:
			assert.GreaterOrEqual(t, sig.PricePerKWh, 0.20)
			assert.LessOrEqual(t, sig.PricePerKWh, 0.32)
		}
	}
}

func TestSimulatedSource_CurrentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := newTestSource(8, 1)
	_, err := src.Current(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAgent_RunPublishesSignals(t *testing.T) {
	src := newTestSource(8, 3)
	a := NewAgent(src, 12)

	emit := make(chan core.Event, 2)
	rc := core.NewRunContext(context.Background(), "run-1", core.AgentInfo{}, emit, logging.NoOpLogger{})

	require.NoError(t, a.Run(rc))

	_, ok := rc.CurrentSignal()
	assert.True(t, ok)
	assert.Len(t, rc.Forecast(), 12)

	ev := <-emit
	assert.Equal(t, core.EventEnergySignals, ev.Type)
	assert.Equal(t, 12, ev.Data["forecast_hours"])
}

func TestNewAgent_DefaultHorizon(t *testing.T) {
	a := NewAgent(newTestSource(8, 3), 0)
	assert.Equal(t, 24, a.horizonHours)
}
