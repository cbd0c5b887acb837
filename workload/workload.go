package workload

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/voltmesh/voltmesh/core"
)

// flexSlackHours is the margin beyond a workload's duration that must remain
// before its deadline for the job to be considered shiftable.
const flexSlackHours = 2

// Queue manages the site's compute workloads and reports which of them can
// be flexibly scheduled. It is safe for concurrent use.
type Queue struct {
	mu            sync.RWMutex
	maxCapacityKW float64
	currentLoadKW float64
	workloads     []core.Workload

	now  func() time.Time
	rand *rand.Rand
}

// QueueOptions holds overrides passed to NewQueue.
type QueueOptions struct {
	// Now supplies the clock used for flexibility checks and sample seeding.
	Now func() time.Time
	// Rand supplies the randomness used for sample seeding.
	Rand *rand.Rand
}

// NewQueue constructs an empty workload queue for a site with the given
// capacity envelope.
func NewQueue(maxCapacityKW float64, optFns ...func(o *QueueOptions)) *Queue {
	opts := QueueOptions{
		Now:  time.Now,
		Rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Queue{maxCapacityKW: maxCapacityKW, now: opts.Now, rand: opts.Rand}
}

// Add appends a workload to the queue.
func (q *Queue) Add(w core.Workload) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if w.Status == "" {
		w.Status = core.StatusPending
	}
	q.workloads = append(q.workloads, w)
}

// All returns a copy of every queued workload.
func (q *Queue) All() []core.Workload {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]core.Workload(nil), q.workloads...)
}

// Flexible returns the pending workloads that can still be shifted: jobs
// whose remaining time before the deadline exceeds their duration plus a
// slack margin.
func (q *Queue) Flexible() []core.Workload {
	q.mu.RLock()
	defer q.mu.RUnlock()

	now := q.now()
	var flexible []core.Workload
	for _, w := range q.workloads {
		if w.Status != core.StatusPending {
			continue
		}
		hoursUntilDeadline := w.Deadline.Sub(now).Hours()
		if hoursUntilDeadline > w.DurationHours+flexSlackHours {
			flexible = append(flexible, w)
		}
	}
	return flexible
}

// Capacity returns a snapshot of the site's electrical envelope.
func (q *Queue) Capacity() core.Capacity {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return core.Capacity{
		MaxKW:         q.maxCapacityKW,
		CurrentLoadKW: q.currentLoadKW,
		AvailableKW:   q.maxCapacityKW - q.currentLoadKW,
	}
}

// UpdateStatus transitions a queued workload to a new status.
func (q *Queue) UpdateStatus(jobID string, status core.WorkloadStatus) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.workloads {
		if q.workloads[i].JobID == jobID {
			q.workloads[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("update status %s: %w", jobID, core.ErrWorkloadNotFound)
}

// Clear drops every queued workload. Used by the demo API between cycles.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.workloads = nil
}

// sampleTemplates are the demo workload shapes used by SeedSamples.
var sampleTemplates = []struct {
	name     string
	energyKW float64
	duration float64
}{
	{"ML Model Training", 150, 4},
	{"Data Processing Pipeline", 80, 2},
	{"Batch Analytics", 120, 3},
	{"Video Rendering", 200, 6},
	{"Database Backup", 50, 1.5},
}

var samplePriorities = []core.Priority{core.PriorityHigh, core.PriorityMedium, core.PriorityLow}

// SeedSamples queues n demonstration workloads with deadlines 12 to 48 hours
// out. Priorities and deadlines are drawn from the queue's rand source so
// tests can seed deterministically.
func (q *Queue) SeedSamples(n int) {
	now := q.now()
	for i := 0; i < n; i++ {
		tpl := sampleTemplates[i%len(sampleTemplates)]

		q.mu.Lock()
		priority := samplePriorities[q.rand.Intn(len(samplePriorities))]
		deadlineHours := 12 + q.rand.Intn(37)
		q.mu.Unlock()

		q.Add(core.Workload{
			JobID:         fmt.Sprintf("JOB-%03d", i+1),
			Name:          fmt.Sprintf("%s #%d", tpl.name, i+1),
			EnergyKW:      tpl.energyKW,
			DurationHours: tpl.duration,
			Priority:      priority,
			Deadline:      now.Add(time.Duration(deadlineHours) * time.Hour),
			EarliestStart: now,
			Status:        core.StatusPending,
		})
	}
}
