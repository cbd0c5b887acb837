// Package decision implements the scheduling optimizer: a single-pass greedy
// search over candidate hourly start windows that minimizes a weighted sum of
// energy cost and monetized carbon, credits P415 flexibility revenue, and
// enforces SLA bounds plus an optional carbon cap.
package decision

import (
	"math"
	"time"

	"github.com/voltmesh/voltmesh/core"
)

const (
	// carbonPricePerKg monetizes carbon so it can be weighed against energy
	// cost on one scale (£0.10 per kg CO2).
	carbonPricePerKg = 0.10

	// Priority multipliers bias the window score so high priority jobs win
	// contested slots.
	highPriorityFactor = 0.8
	lowPriorityFactor  = 1.2

	// Normalized score bounds reported on a Decision.
	minScore     = 0.70
	maxScore     = 1.0
	defaultScore = 0.85
)

// Optimizer chooses execution windows for workloads based on energy cost,
// carbon intensity, P415 flexibility revenue and SLA constraints.
type Optimizer struct {
	costWeight   float64
	carbonWeight float64
	// carbonCapKg, when positive, rejects windows whose total emissions
	// exceed the cap.
	carbonCapKg float64
}

// OptimizerOptions holds overrides passed to NewOptimizer.
type OptimizerOptions struct {
	CostWeight   float64
	CarbonWeight float64
	CarbonCapKg  float64
}

// NewOptimizer constructs an optimizer with the default 0.4 cost / 0.6
// carbon weighting and no carbon cap.
func NewOptimizer(optFns ...func(o *OptimizerOptions)) *Optimizer {
	opts := OptimizerOptions{CostWeight: 0.4, CarbonWeight: 0.6}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Optimizer{
		costWeight:   opts.CostWeight,
		carbonWeight: opts.CarbonWeight,
		carbonCapKg:  opts.CarbonCapKg,
	}
}

// Schedule finds the best window for every workload against the forecast.
// Workloads with no feasible window are skipped; the returned slice holds
// one Decision per placed workload, in input order.
func (o *Optimizer) Schedule(workloads []core.Workload, forecast []core.EnergySignal) []core.Decision {
	decisions := make([]core.Decision, 0, len(workloads))
	for _, w := range workloads {
		if d, ok := o.bestWindow(w, forecast); ok {
			decisions = append(decisions, d)
		}
	}
	return decisions
}

// bestWindow scans every forecast slot as a candidate start and keeps the
// minimum-score feasible window. The boolean is false when no slot satisfies
// the workload's SLA bounds and the carbon cap.
func (o *Optimizer) bestWindow(w core.Workload, forecast []core.EnergySignal) (core.Decision, bool) {
	bestScore := math.Inf(1)
	var bestStart time.Time
	var bestCost, bestCarbon, bestRevenue float64
	found := false

	// Immediate execution (slot 0) is the baseline the normalized score is
	// measured against.
	immCost, immCarbon, immRevenue := o.windowMetrics(w, forecast, 0)
	immediateScore := o.rawScore(immCost, immCarbon, immRevenue)

	duration := time.Duration(w.DurationHours * float64(time.Hour))

	for i, slot := range forecast {
		start := slot.Timestamp
		if start.Before(w.EarliestStart) {
			continue
		}
		if start.Add(duration).After(w.Deadline) {
			continue
		}

		cost, carbon, revenue := o.windowMetrics(w, forecast, i)
		if o.carbonCapKg > 0 && carbon/1000 > o.carbonCapKg {
			continue
		}

		score := o.rawScore(cost, carbon, revenue)
		switch w.Priority {
		case core.PriorityHigh:
			score *= highPriorityFactor
		case core.PriorityLow:
			score *= lowPriorityFactor
		}

		if score < bestScore {
			bestScore = score
			bestStart = start
			bestCost, bestCarbon, bestRevenue = cost, carbon, revenue
			found = true
		}
	}

	if !found {
		return core.Decision{}, false
	}

	return core.Decision{
		JobID:               w.JobID,
		Start:               bestStart,
		End:                 bestStart.Add(duration),
		ExpectedCost:        bestCost,
		ExpectedCarbon:      bestCarbon,
		ExpectedP415Revenue: bestRevenue,
		Score:               normalizedScore(immediateScore, bestScore),
	}, true
}

// windowMetrics accumulates cost, carbon (grams) and P415 revenue for a
// window starting at forecast index start. Fractional durations are rounded
// up to whole hourly slots; windows running past the forecast end are
// truncated.
func (o *Optimizer) windowMetrics(w core.Workload, forecast []core.EnergySignal, start int) (cost, carbon, revenue float64) {
	hours := int(math.Ceil(w.DurationHours))
	for h := 0; h < hours; h++ {
		idx := start + h
		if idx >= len(forecast) {
			break
		}
		sig := forecast[idx]
		energyKWh := w.EnergyKW // one hourly slot

		cost += energyKWh * sig.PricePerKWh
		carbon += energyKWh * sig.CarbonIntensity
		if sig.P415Active {
			revenue += energyKWh * sig.P415RevenuePerKWh
		}
	}
	return cost, carbon, revenue
}

// rawScore is the minimized quantity: weighted cost plus weighted monetized
// carbon, less flexibility revenue.
func (o *Optimizer) rawScore(cost, carbonGrams, revenue float64) float64 {
	carbonCost := carbonGrams / 1000 * carbonPricePerKg
	return o.costWeight*cost + o.carbonWeight*carbonCost - revenue
}

// normalizedScore expresses how much better the chosen window is than
// immediate execution, clamped to [minScore, maxScore]. A non-positive
// immediate baseline (already revenue-dominated) yields the default.
func normalizedScore(immediate, best float64) float64 {
	if immediate <= 0 {
		return defaultScore
	}
	improvement := (immediate - best) / immediate
	return math.Max(minScore, math.Min(maxScore, improvement))
}

// Savings compares the optimized schedule against running every workload
// immediately at the average of the first three forecast slots.
func (o *Optimizer) Savings(decisions []core.Decision, workloads []core.Workload, signals []core.EnergySignal) core.Savings {
	n := len(signals)
	if n > 3 {
		n = 3
	}
	var avgPrice, avgCarbon float64
	if n > 0 {
		for _, s := range signals[:n] {
			avgPrice += s.PricePerKWh
			avgCarbon += s.CarbonIntensity
		}
		avgPrice /= float64(n)
		avgCarbon /= float64(n)
	}

	var immCost, immCarbon float64
	for _, w := range workloads {
		immCost += w.EnergyKWh() * avgPrice
		immCarbon += w.EnergyKWh() * avgCarbon
	}

	var optCost, optCarbon, revenue float64
	for _, d := range decisions {
		optCost += d.ExpectedCost
		optCarbon += d.ExpectedCarbon
		revenue += d.ExpectedP415Revenue
	}

	s := core.Savings{
		ImmediateCost:     immCost,
		OptimizedCost:     optCost,
		CostSavings:       immCost - optCost,
		ImmediateCarbonKg: immCarbon / 1000,
		OptimizedCarbonKg: optCarbon / 1000,
		CarbonSavingsKg:   (immCarbon - optCarbon) / 1000,
		P415Revenue:       revenue,
		TotalBenefit:      (immCost - optCost) + revenue,
	}
	if immCost > 0 {
		s.CostSavingsPercent = s.CostSavings / immCost * 100
	}
	if immCarbon > 0 {
		s.CarbonSavingsPercent = (immCarbon - optCarbon) / immCarbon * 100
	}
	return s
}
