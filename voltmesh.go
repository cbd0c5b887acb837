// Package voltmesh provides a high-level façade over the optimization engine
// and its supporting services (workload queue, grid signals, schedule
// optimizer, Beckn client, audit trail & logging). Most applications interact
// with this package by:
//  1. Loading a config.Config (or starting from config.Default())
//  2. Creating a Voltmesh via New() (optionally overriding services)
//  3. Running optimization cycles (RunCycle) or serving them over HTTP
//
// The façade delegates orchestration to engine.Engine while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// demos; production deployments typically supply a MySQL audit store, a Redis
// forecast cache, an AMQP notifier and a structured logger.
package voltmesh

import (
	"context"
	"fmt"
	"net/http"

	"github.com/voltmesh/voltmesh/audit"
	"github.com/voltmesh/voltmesh/beckn"
	"github.com/voltmesh/voltmesh/config"
	"github.com/voltmesh/voltmesh/core"
	"github.com/voltmesh/voltmesh/decision"
	"github.com/voltmesh/voltmesh/engine"
	"github.com/voltmesh/voltmesh/grid"
	"github.com/voltmesh/voltmesh/logging"
	"github.com/voltmesh/voltmesh/notify"
	"github.com/voltmesh/voltmesh/workload"
)

// Options configures the Voltmesh instance beyond what config.Config carries.
// Every unset service is built from the configuration.
type Options struct {
	// Logger (defaults to a structured logger built from cfg.Logging)
	Logger logging.Logger

	// SignalSource overrides the simulated grid source.
	SignalSource grid.SignalSource

	// Store overrides the audit store selected by cfg.Audit.
	Store audit.Store

	// Notifier overrides the notifier selected by cfg.Notify.
	Notifier notify.Notifier

	// HTTPClient overrides the Beckn client's transport.
	HTTPClient *http.Client
}

// Voltmesh is the high-level façade aggregating the engine and its services.
type Voltmesh struct {
	cfg    config.Config
	logger logging.Logger
	queue  *workload.Queue
	source grid.SignalSource
	trail  *audit.Trail
	engine *engine.Engine

	closers []func() error
}

// New assembles a Voltmesh instance from the configuration with optional
// service overrides. The returned instance owns every service it built and
// releases them on Close.
func New(ctx context.Context, cfg config.Config, optFns ...func(o *Options)) (*Voltmesh, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewSlogLogger(
			logging.ParseLogLevel(cfg.Logging.Level), cfg.Logging.Format, false)
	}

	vm := &Voltmesh{cfg: cfg, logger: logger}

	vm.queue = workload.NewQueue(cfg.Site.MaxCapacityKW)
	if n := cfg.Site.SeedSampleWorkloads; n > 0 {
		vm.queue.SeedSamples(n)
	}

	vm.source = opts.SignalSource
	if vm.source == nil {
		vm.source = grid.NewSimulatedSource()
	}
	if cfg.Grid.RedisAddr != "" {
		cache, err := grid.NewRedisCache(vm.source, grid.RedisCacheConfig{
			Address:  cfg.Grid.RedisAddr,
			Password: cfg.Grid.RedisPassword,
			DB:       cfg.Grid.RedisDB,
			TTL:      cfg.Grid.CacheTTL(),
		})
		if err != nil {
			return nil, fmt.Errorf("forecast cache: %w", err)
		}
		vm.source = cache
		vm.closers = append(vm.closers, cache.Close)
	}

	store := opts.Store
	if store == nil {
		switch cfg.Audit.Driver {
		case "mysql":
			ms, err := audit.NewMySQLStore(ctx, audit.MySQLConfig{DSN: cfg.Audit.DSN})
			if err != nil {
				return nil, fmt.Errorf("audit store: %w", err)
			}
			store = ms
			vm.closers = append(vm.closers, ms.Close)
		default:
			store = audit.NewMemoryStore()
		}
	}
	vm.trail = audit.NewTrail(store, logger)

	notifier := opts.Notifier
	if notifier == nil {
		if cfg.Notify.AMQPURL != "" {
			an, err := notify.NewAMQPNotifier(notify.AMQPConfig{
				URL:     cfg.Notify.AMQPURL,
				Queue:   cfg.Notify.Queue,
				Durable: cfg.Notify.Durable,
			})
			if err != nil {
				return nil, fmt.Errorf("order notifier: %w", err)
			}
			notifier = an
			vm.closers = append(vm.closers, an.Close)
		} else {
			notifier = notify.NoopNotifier{}
		}
	}

	client := beckn.NewClient(cfg.Beckn.BaseURL, func(o *beckn.ClientOptions) {
		o.HTTPClient = opts.HTTPClient
		o.Timeout = cfg.Beckn.Timeout()
		o.BapID = cfg.Beckn.BapID
		o.BapURI = cfg.Beckn.BapURI
		o.SandboxFallback = cfg.Beckn.SandboxFallbackEnabled()
		o.Logger = logger
	})

	agents := []core.Agent{
		workload.NewAgent(vm.queue),
		grid.NewAgent(vm.source, cfg.Grid.ForecastHorizonHours),
		decision.NewAgent(decision.NewOptimizer(func(o *decision.OptimizerOptions) {
			o.CostWeight = cfg.Optimizer.CostWeight
			o.CarbonWeight = cfg.Optimizer.CarbonWeight
			o.CarbonCapKg = cfg.Optimizer.CarbonCapKg
		})),
		beckn.NewAgent(client),
	}
	vm.engine = engine.New(agents, vm.trail, func(o *engine.Options) {
		o.Logger = logger
		o.Notifier = notifier
	})

	return vm, nil
}

// RunCycle executes one optimization cycle.
func (v *Voltmesh) RunCycle(ctx context.Context) (*engine.Result, error) {
	return v.engine.Run(ctx)
}

// Queue returns the workload queue for job submission and status updates.
func (v *Voltmesh) Queue() *workload.Queue { return v.queue }

// Trail returns the audit trail for verification, export and settlement.
func (v *Voltmesh) Trail() *audit.Trail { return v.trail }

// Engine returns the underlying cycle engine.
func (v *Voltmesh) Engine() *engine.Engine { return v.engine }

// Logger returns the instance's logger.
func (v *Voltmesh) Logger() logging.Logger { return v.logger }

// Config returns the configuration the instance was built from.
func (v *Voltmesh) Config() config.Config { return v.cfg }

// Close releases every service the instance owns, returning the first error.
func (v *Voltmesh) Close() error {
	var first error
	for i := len(v.closers) - 1; i >= 0; i-- {
		if err := v.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
