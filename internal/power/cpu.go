// CPU power sampler — prefers the hardware RAPL energy counter on Linux and
// falls back to a utilization-scaled TDP heuristic everywhere else.
// Uses gopsutil for the CPU model name and utilization.
package power

import (
	"context"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/zap"
)

// idleLoadFactor scales the TDP when utilization cannot be measured; the
// chip is assumed to run at half its rated draw.
const idleLoadFactor = 0.5

// CPUSampler estimates CPU package power draw.
type CPUSampler struct {
	table  PatternTable
	rapl   *raplReader
	logger *zap.Logger

	modelOnce sync.Once
	model     string
	tdp       float64
}

// NewCPUSampler creates a CPU power sampler with the default TDP table.
func NewCPUSampler(logger *zap.Logger) *CPUSampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CPUSampler{
		table:  defaultCPUTDP,
		logger: logger,
	}
	r := newRAPLReader("")
	if r.available() {
		logger.Debug("RAPL energy counter available, using hardware CPU power")
		s.rapl = r
	}
	return s
}

// Name returns the sampler identifier.
func (s *CPUSampler) Name() string { return "cpu" }

// Watts estimates the current CPU power draw. The RAPL reading wins when
// present; otherwise the rated TDP for the detected CPU model is scaled by
// the current overall utilization.
func (s *CPUSampler) Watts(ctx context.Context) (float64, error) {
	if s.rapl != nil {
		if w, err := s.rapl.watts(); err == nil && w > 0 {
			return w, nil
		}
		// Primed or errored counter falls through to the heuristic so
		// the first tick still reports a plausible value.
	}

	tdp := s.modelTDP(ctx)

	load := idleLoadFactor
	if util, err := Utilization(ctx); err == nil {
		load = util / 100
		if load < 0 {
			load = 0
		} else if load > 1 {
			load = 1
		}
	}

	return tdp * load, nil
}

// modelTDP resolves and caches the rated TDP for the machine's CPU model.
func (s *CPUSampler) modelTDP(ctx context.Context) float64 {
	s.modelOnce.Do(func() {
		infos, err := cpu.InfoWithContext(ctx)
		if err != nil || len(infos) == 0 {
			s.logger.Warn("CPU model detection failed, using default TDP", zap.Error(err))
			s.tdp = s.table.Lookup("")
			return
		}
		s.model = infos[0].ModelName
		s.tdp = s.table.Lookup(s.model)
		s.logger.Debug("CPU model resolved",
			zap.String("model", s.model),
			zap.Float64("tdp_watts", s.tdp))
	})
	return s.tdp
}

// Utilization returns the overall CPU utilization percentage since the last
// call (instantaneous snapshot, non-blocking).
func Utilization(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, nil
	}
	return percents[0], nil
}
