package grid

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/voltmesh/voltmesh/core"
)

// P415 event parameters used by the simulation: flexibility payment per kWh,
// reduction ask and event length, with separate occurrence probabilities for
// the live signal and forecast slots.
const (
	p415RevenuePerKWh   = 0.15
	p415ReductionKW     = 200
	p415DurationHours   = 2
	p415CurrentChance   = 0.65
	p415ForecastChance  = 0.40
	basePricePerKWh     = 0.25
	peakStartHour       = 16
	peakEndHour         = 20
	offPeakStartHour    = 22
	offPeakEndHour      = 6
	minGridAvailability = 0.85
)

// SimulatedSource produces realistic UK-shaped energy signals without calling
// external APIs: peak pricing in the late afternoon, cheaper low-carbon
// nights, and randomly occurring P415 events. Safe for concurrent use.
type SimulatedSource struct {
	mu   sync.Mutex
	now  func() time.Time
	rand *rand.Rand
}

// SimulatedSourceOptions holds overrides passed to NewSimulatedSource.
type SimulatedSourceOptions struct {
	// Now supplies the clock; tests inject a fixed time.
	Now func() time.Time
	// Rand supplies the randomness; tests inject a seeded source.
	Rand *rand.Rand
}

// NewSimulatedSource constructs a simulated signal source.
func NewSimulatedSource(optFns ...func(o *SimulatedSourceOptions)) *SimulatedSource {
	opts := SimulatedSourceOptions{
		Now:  time.Now,
		Rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &SimulatedSource{now: opts.Now, rand: opts.Rand}
}

// Current implements SignalSource.
func (s *SimulatedSource) Current(ctx context.Context) (core.EnergySignal, error) {
	if err := ctx.Err(); err != nil {
		return core.EnergySignal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	hour := now.Hour()

	priceMultiplier := s.float(0.8, 1.2)
	if hour >= peakStartHour && hour <= peakEndHour {
		priceMultiplier = 1.5
	}

	carbon := s.float(250, 400)
	if hour >= offPeakStartHour || hour <= offPeakEndHour {
		carbon = s.float(150, 250)
	}

	ev := s.p415Locked(p415CurrentChance)

	return core.EnergySignal{
		Timestamp:         now,
		PricePerKWh:       basePricePerKWh * priceMultiplier,
		CarbonIntensity:   carbon,
		GridAvailability:  s.float(minGridAvailability, 1.0),
		P415Active:        ev.Active,
		P415RevenuePerKWh: ev.RevenuePerKWh,
	}, nil
}

// Forecast implements SignalSource. Slots are hourly, starting from now.
func (s *SimulatedSource) Forecast(ctx context.Context, hours int) ([]core.EnergySignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	signals := make([]core.EnergySignal, 0, hours)
	for h := 0; h < hours; h++ {
		ts := now.Add(time.Duration(h) * time.Hour)
		signals = append(signals, s.forecastSlotLocked(ts))
	}
	return signals, nil
}

// CheckP415 reports whether a demand-flexibility event is currently active.
func (s *SimulatedSource) CheckP415() P415Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p415Locked(p415CurrentChance)
}

func (s *SimulatedSource) forecastSlotLocked(ts time.Time) core.EnergySignal {
	hour := ts.Hour()

	var price, carbon float64
	switch {
	case hour >= peakStartHour && hour <= peakEndHour:
		price = s.float(0.30, 0.45)
		carbon = s.float(300, 450)
	case hour >= offPeakStartHour || hour <= offPeakEndHour:
		price = s.float(0.15, 0.25)
		carbon = s.float(150, 250)
	default:
		price = s.float(0.20, 0.32)
		carbon = s.float(200, 350)
	}

	ev := s.p415Locked(p415ForecastChance)

	return core.EnergySignal{
		Timestamp:         ts,
		PricePerKWh:       price,
		CarbonIntensity:   carbon,
		GridAvailability:  s.float(minGridAvailability, 1.0),
		P415Active:        ev.Active,
		P415RevenuePerKWh: ev.RevenuePerKWh,
	}
}

func (s *SimulatedSource) p415Locked(chance float64) P415Event {
	if s.rand.Float64() >= chance {
		return P415Event{}
	}
	return P415Event{
		Active:              true,
		RevenuePerKWh:       p415RevenuePerKWh,
		RequiredReductionKW: p415ReductionKW,
		DurationHours:       p415DurationHours,
	}
}

func (s *SimulatedSource) float(min, max float64) float64 {
	return min + s.rand.Float64()*(max-min)
}

var _ SignalSource = (*SimulatedSource)(nil)
