package core

import "time"

// Priority classifies how urgently a workload should be placed.
// The optimizer biases window scores in favor of high priority jobs.
type Priority string

const (
	// PriorityHigh marks workloads whose placement is favored by the optimizer.
	PriorityHigh Priority = "high"
	// PriorityMedium is the neutral default priority.
	PriorityMedium Priority = "medium"
	// PriorityLow marks workloads that may be deferred in favor of others.
	PriorityLow Priority = "low"
)

// WorkloadStatus tracks a workload through its scheduling lifecycle.
type WorkloadStatus string

const (
	// StatusPending means the workload is queued and not yet scheduled.
	StatusPending WorkloadStatus = "pending"
	// StatusScheduled means a window has been procured for the workload.
	StatusScheduled WorkloadStatus = "scheduled"
	// StatusRunning means the workload is executing.
	StatusRunning WorkloadStatus = "running"
	// StatusCompleted means the workload finished within its window.
	StatusCompleted WorkloadStatus = "completed"
	// StatusFailed means the workload did not complete.
	StatusFailed WorkloadStatus = "failed"
)

// Workload is a deferrable compute job that needs an energy window.
//
// EarliestStart and Deadline bound the feasible placement range; DurationHours
// may be fractional and is rounded up to whole hours when window metrics are
// accumulated against hourly energy signals.
type Workload struct {
	JobID         string         `json:"job_id"`
	Name          string         `json:"name"`
	EnergyKW      float64        `json:"energy_usage_kw"`
	DurationHours float64        `json:"duration_hours"`
	Priority      Priority       `json:"priority"`
	Deadline      time.Time      `json:"sla_deadline"`
	EarliestStart time.Time      `json:"earliest_start"`
	Status        WorkloadStatus `json:"status"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// EnergyKWh returns the total energy the workload consumes over its full duration.
func (w Workload) EnergyKWh() float64 { return w.EnergyKW * w.DurationHours }

// EnergySignal describes grid conditions for one hourly slot.
//
// GridAvailability is a 0..1 fraction. P415RevenuePerKWh is only meaningful
// while P415Active is set; it is the flexibility payment earned per kWh
// shifted into the slot.
type EnergySignal struct {
	Timestamp         time.Time `json:"timestamp"`
	PricePerKWh       float64   `json:"price_per_kwh"`
	CarbonIntensity   float64   `json:"carbon_intensity_g_per_kwh"`
	GridAvailability  float64   `json:"grid_availability"`
	P415Active        bool      `json:"p415_event_active"`
	P415RevenuePerKWh float64   `json:"p415_revenue_per_kwh"`
}

// Decision is the optimizer's placement for a single workload.
//
// Score is normalized against the immediate-execution baseline and clamped
// to [0.70, 1.0]; higher is better. ExpectedCarbon is in grams.
type Decision struct {
	JobID               string    `json:"job_id"`
	Start               time.Time `json:"scheduled_start"`
	End                 time.Time `json:"scheduled_end"`
	ExpectedCost        float64   `json:"expected_cost"`
	ExpectedCarbon      float64   `json:"expected_carbon"`
	ExpectedP415Revenue float64   `json:"expected_p415_revenue"`
	Score               float64   `json:"optimization_score"`
}

// Capacity is a snapshot of the site's electrical envelope.
type Capacity struct {
	MaxKW         float64 `json:"max_capacity_kw"`
	CurrentLoadKW float64 `json:"current_load_kw"`
	AvailableKW   float64 `json:"available_capacity_kw"`
}

// Savings compares an optimized schedule against running every workload
// immediately at current grid conditions. Carbon figures are in kilograms.
type Savings struct {
	ImmediateCost        float64 `json:"immediate_cost"`
	OptimizedCost        float64 `json:"optimized_cost"`
	CostSavings          float64 `json:"cost_savings"`
	CostSavingsPercent   float64 `json:"cost_savings_percent"`
	ImmediateCarbonKg    float64 `json:"immediate_carbon_kg"`
	OptimizedCarbonKg    float64 `json:"optimized_carbon_kg"`
	CarbonSavingsKg      float64 `json:"carbon_savings_kg"`
	CarbonSavingsPercent float64 `json:"carbon_savings_percent"`
	P415Revenue          float64 `json:"p415_revenue"`
	TotalBenefit         float64 `json:"total_benefit"`
}
