// RAM power sampler — estimates memory power draw from installed capacity.
// Uses gopsutil for total memory size.
package power

import (
	"context"
	"sync"

	"github.com/shirou/gopsutil/v3/mem"
)

// wattsPerGB is the estimated draw of installed DRAM: roughly 3 W per 8 GB
// DIMM, prorated by capacity.
const wattsPerGB = 3.0 / 8.0

// RAMSampler estimates memory power draw. Installed capacity is read once
// and cached; DRAM draw does not vary enough with load to warrant
// re-sampling.
type RAMSampler struct {
	once    sync.Once
	totalGB float64
	err     error
}

// NewRAMSampler creates a RAM power sampler.
func NewRAMSampler() *RAMSampler {
	return &RAMSampler{}
}

// Name returns the sampler identifier.
func (s *RAMSampler) Name() string { return "ram" }

// Watts returns the estimated memory power draw, proportional to the
// installed memory size.
func (s *RAMSampler) Watts(ctx context.Context) (float64, error) {
	s.once.Do(func() {
		v, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			s.err = err
			return
		}
		s.totalGB = float64(v.Total) / (1 << 30)
	})
	if s.err != nil {
		return 0, s.err
	}
	return s.totalGB * wattsPerGB, nil
}
