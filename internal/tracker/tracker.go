// Package tracker implements the tracking session: a state machine that
// periodically samples per-domain power draw, integrates it into cumulative
// energy, and converts the result into CO₂ emissions when stopped.
//
// All accumulator mutation happens inside the tick handler; a mutex
// serializes ticks so a slow sampler can never overlap the next scheduled
// tick, and Stop cancels the schedule before taking the final sample.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carbontrace/carbontrace/internal/config"
	"github.com/carbontrace/carbontrace/internal/geo"
	"github.com/carbontrace/carbontrace/internal/intensity"
	"github.com/carbontrace/carbontrace/internal/power"
	"github.com/carbontrace/carbontrace/internal/report"
	"github.com/carbontrace/carbontrace/internal/sysinfo"
)

// Version identifies this library in the durable emissions record.
const Version = "0.1.0"

// IntensityResolver maps a location to a carbon-intensity factor.
type IntensityResolver interface {
	Intensity(countryCode, region string) float64
	CountryName(countryCode string) string
}

// SystemCollector provides static machine metadata for the final record.
type SystemCollector interface {
	Collect(ctx context.Context) sysinfo.Info
}

// Samplers bundles the per-domain power samplers a session draws from.
type Samplers struct {
	CPU power.Sampler
	RAM power.Sampler
	GPU power.Sampler
}

// Deps are the tracker's collaborators. Zero-value fields are replaced by
// production defaults in New; tests inject fakes. Collaborators are passed
// in explicitly so concurrent sessions never share mutable state.
type Deps struct {
	Samplers    Samplers
	Utilization func(ctx context.Context) float64
	Location    geo.Resolver
	Intensity   IntensityResolver
	System      SystemCollector
	Writers     []report.Writer
	Clock       func() time.Time
}

// Tracker owns one tracking session from Start through Stop.
type Tracker struct {
	cfg    *config.Config
	logger *zap.Logger
	deps   Deps

	mu           sync.Mutex
	state        State
	startedAt    time.Time
	stoppedAt    time.Time
	lastTick     time.Time
	acc          Accumulator
	lastWatts    [numDomains]float64
	measurements []Measurement
	loc          geo.Location
	sys          sysinfo.Info
	runID        string

	cancel context.CancelFunc
	done   chan struct{}
}

// Status is a read-only snapshot of a session.
type Status struct {
	State          State
	ElapsedSeconds float64 // 0 unless running
	TickCount      int
	EnergyKWh      float64
}

// New creates a tracker for one session. Missing collaborators in deps are
// filled with production defaults derived from the configuration (fixed
// samplers for forced domains, geo-IP location unless pinned, embedded
// intensity tables, CSV + console sinks).
func New(cfg *config.Config, logger *zap.Logger, deps Deps) (*Tracker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if deps.Intensity == nil {
		r, err := intensity.NewResolver(logger)
		if err != nil {
			return nil, err
		}
		deps.Intensity = r
	}
	if deps.Location == nil {
		if cfg.Location.CountryCode != "" {
			deps.Location = geo.Static{Location: geo.Location{
				CountryCode: cfg.Location.CountryCode,
				CountryName: deps.Intensity.CountryName(cfg.Location.CountryCode),
				Region:      cfg.Location.Region,
			}}
		} else {
			deps.Location = geo.NewIPResolver("", logger)
		}
	}
	if deps.System == nil {
		deps.System = sysinfo.NewCollector(logger)
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Utilization == nil {
		deps.Utilization = func(ctx context.Context) float64 {
			util, err := power.Utilization(ctx)
			if err != nil {
				return 0
			}
			return util
		}
	}

	deps.Samplers.CPU = pickSampler(deps.Samplers.CPU, cfg.Tracking.ForceCPUPower, "cpu",
		func() power.Sampler { return power.NewCPUSampler(logger) })
	deps.Samplers.RAM = pickSampler(deps.Samplers.RAM, cfg.Tracking.ForceRAMPower, "ram",
		func() power.Sampler { return power.NewRAMSampler() })
	deps.Samplers.GPU = pickSampler(deps.Samplers.GPU, cfg.Tracking.ForceGPUPower, "gpu",
		func() power.Sampler { return power.NewGPUSampler(logger) })

	if deps.Writers == nil {
		deps.Writers = []report.Writer{report.ConsoleSummary{}}
		if cfg.Output.SaveToFile {
			deps.Writers = append(deps.Writers, report.NewCSVWriter(cfg.Output.File, logger))
		}
	}

	return &Tracker{
		cfg:    cfg,
		logger: logger,
		deps:   deps,
	}, nil
}

// pickSampler resolves one domain's sampler: a configured fixed override
// beats an injected sampler, which beats the production default.
func pickSampler(injected power.Sampler, force *float64, name string, def func() power.Sampler) power.Sampler {
	if force != nil {
		return power.NewFixed(name, *force)
	}
	if injected != nil {
		return injected
	}
	return def()
}

// Start begins the session: resolves location and system metadata, resets
// the accumulators and measurement log, takes one immediate measurement,
// and schedules recurring ticks. Calling Start on a session that is not
// idle logs a warning and changes nothing.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateIdle {
		t.logger.Warn("Start ignored: session is not idle",
			zap.Stringer("state", t.state))
		return
	}

	t.loc = t.deps.Location.Resolve(ctx)
	t.sys = t.deps.System.Collect(ctx)

	t.acc = Accumulator{}
	t.lastWatts = [numDomains]float64{}
	t.measurements = nil
	t.runID = uuid.NewString()

	now := t.deps.Clock()
	t.startedAt = now
	t.lastTick = now
	t.state = StateRunning

	// The session start counts as the previous tick time; this immediate
	// sample guarantees even a zero-duration session records one
	// measurement.
	t.tickLocked(ctx)

	runCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.run(runCtx)

	t.logger.Info("Tracking started",
		zap.String("run_id", t.runID),
		zap.String("project", t.cfg.Project.Name),
		zap.String("country_code", t.loc.CountryCode),
		zap.Duration("interval", t.cfg.Tracking.Interval.Duration))
}

// run delivers scheduled ticks until cancelled. A tick that fires while a
// previous one still holds the lock simply waits its turn; a tick that
// fires during Stop finds the session stopped and is dropped.
func (t *Tracker) run(ctx context.Context) {
	defer close(t.done)

	ticker := time.NewTicker(t.cfg.Tracking.Interval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.state == StateRunning {
				t.tickLocked(ctx)
			} else {
				t.logger.Warn("Dropped tick scheduled before cancellation")
			}
			t.mu.Unlock()
		}
	}
}

// Stop cancels the schedule, takes one final measurement to capture the
// tail interval, freezes the session and hands the computed result to the
// output sinks. It returns the session's emissions in kilograms of CO₂.
// Calling Stop on a session that is not running logs a warning and
// returns 0 without touching the accumulators.
func (t *Tracker) Stop(ctx context.Context) float64 {
	t.mu.Lock()
	if t.state != StateRunning {
		t.logger.Warn("Stop ignored: session is not running",
			zap.Stringer("state", t.state))
		t.mu.Unlock()
		return 0
	}

	// Cancel the schedule before the final tick so nothing can mutate the
	// accumulators after the result is computed.
	t.cancel()

	// Final tick for the tail interval. When no time has passed since the
	// last measurement the start tick already covers the session.
	if t.deps.Clock().After(t.lastTick) {
		t.tickLocked(ctx)
	}

	t.state = StateStopped
	t.stoppedAt = t.deps.Clock()
	result := t.buildResultLocked()
	t.mu.Unlock()

	<-t.done

	for _, w := range t.deps.Writers {
		if err := w.Write(result); err != nil {
			t.logger.Warn("Result sink failed", zap.Error(err))
		}
	}

	t.logger.Info("Tracking stopped",
		zap.String("run_id", result.RunID),
		zap.Float64("energy_kwh", result.EnergyConsumedKWh),
		zap.Float64("emissions_kg", result.EmissionsKg))

	return result.EmissionsKg
}

// Status returns a read-only snapshot. Safe to call in any state; never
// mutates the session.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Status{
		State:     t.state,
		TickCount: len(t.measurements),
		EnergyKWh: t.acc.Total(),
	}
	if t.state == StateRunning {
		s.ElapsedSeconds = t.deps.Clock().Sub(t.startedAt).Seconds()
	}
	return s
}

// tickLocked performs one measurement: samples each domain, integrates the
// energy over the elapsed window, and appends to the measurement log.
// Callers must hold t.mu.
func (t *Tracker) tickLocked(ctx context.Context) {
	now := t.deps.Clock()
	elapsed := now.Sub(t.lastTick).Seconds()
	if elapsed < 0 {
		// Clock went backwards; never integrate negative time.
		elapsed = 0
	}

	samplers := [numDomains]power.Sampler{
		DomainCPU: t.deps.Samplers.CPU,
		DomainRAM: t.deps.Samplers.RAM,
		DomainGPU: t.deps.Samplers.GPU,
	}

	var watts, increments [numDomains]float64
	for _, d := range domains {
		w, err := samplers[d].Watts(ctx)
		if err != nil {
			// Degrade to the last observed value (zero on the first
			// tick); a sampler failure never aborts the session.
			w = t.lastWatts[d]
			t.logger.Warn("Power sampling failed, substituting last value",
				zap.Stringer("domain", d),
				zap.Float64("watts", w),
				zap.Error(err))
		}
		inc := energyIncrementKWh(w, elapsed, t.cfg.Tracking.PUE)
		t.acc.Add(d, inc)
		t.lastWatts[d] = w
		watts[d] = w
		increments[d] = inc
	}

	t.measurements = append(t.measurements, Measurement{
		Timestamp:       now,
		ElapsedSeconds:  elapsed,
		CPUWatts:        watts[DomainCPU],
		RAMWatts:        watts[DomainRAM],
		GPUWatts:        watts[DomainGPU],
		CPUIncrementKWh: increments[DomainCPU],
		RAMIncrementKWh: increments[DomainRAM],
		GPUIncrementKWh: increments[DomainGPU],
		CPUUtilization:  t.deps.Utilization(ctx),
	})
	t.lastTick = now

	t.logger.Debug("Measurement recorded",
		zap.Float64("elapsed_s", elapsed),
		zap.Float64("total_kwh", t.acc.Total()))
}

// buildResultLocked computes the immutable EmissionsResult for a stopped
// session. Callers must hold t.mu.
func (t *Tracker) buildResultLocked() report.EmissionsResult {
	duration := t.stoppedAt.Sub(t.startedAt).Seconds()
	energy := t.acc.Total()
	gPerKWh := t.deps.Intensity.Intensity(t.loc.CountryCode, t.loc.Region)
	kg := emissionsKg(gPerKWh, energy)

	return report.EmissionsResult{
		Timestamp:             t.stoppedAt,
		ProjectName:           t.cfg.Project.Name,
		RunID:                 t.runID,
		ExperimentID:          t.cfg.Project.ExperimentID,
		DurationSeconds:       duration,
		EmissionsKg:           kg,
		EmissionsRateKgPerSec: emissionsRate(kg, duration),
		CPUPowerWatts:         t.lastWatts[DomainCPU],
		RAMPowerWatts:         t.lastWatts[DomainRAM],
		GPUPowerWatts:         t.lastWatts[DomainGPU],
		CPUEnergyKWh:          t.acc.Energy(DomainCPU),
		RAMEnergyKWh:          t.acc.Energy(DomainRAM),
		GPUEnergyKWh:          t.acc.Energy(DomainGPU),
		EnergyConsumedKWh:     energy,
		Location:              t.loc,
		System:                t.sys,
		PUE:                   t.cfg.Tracking.PUE,
		LibraryVersion:        Version,
	}
}

// Measurements returns a copy of the session's measurement log.
func (t *Tracker) Measurements() []Measurement {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Measurement, len(t.measurements))
	copy(out, t.measurements)
	return out
}
