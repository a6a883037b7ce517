// GPU power sampler — queries live board power draw via nvidia-smi.
// A machine without a usable NVIDIA driver reports zero watts rather than
// an error: an absent GPU draws nothing attributable to the workload.
package power

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// GPUSampler reads instantaneous GPU power draw from nvidia-smi.
type GPUSampler struct {
	logger    *zap.Logger
	available bool
}

// NewGPUSampler creates a GPU power sampler. Availability of nvidia-smi is
// probed once at construction.
func NewGPUSampler(logger *zap.Logger) *GPUSampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	_, err := exec.LookPath("nvidia-smi")
	if err != nil {
		logger.Debug("nvidia-smi not found, GPU power reports zero")
	}
	return &GPUSampler{
		logger:    logger,
		available: err == nil,
	}
}

// Name returns the sampler identifier.
func (s *GPUSampler) Name() string { return "gpu" }

// Watts returns the summed power draw of all GPUs, or zero when no GPU is
// present.
func (s *GPUSampler) Watts(ctx context.Context) (float64, error) {
	if !s.available {
		return 0, nil
	}

	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=power.draw", "--format=csv,noheader,nounits").Output()
	if err != nil {
		return 0, fmt.Errorf("querying nvidia-smi: %w", err)
	}

	return parsePowerDraw(string(out))
}

// parsePowerDraw sums the per-GPU power.draw values from nvidia-smi CSV
// output, one wattage per line. Lines reading "[N/A]" (some passively
// sensed boards) are skipped.
func parsePowerDraw(out string) (float64, error) {
	var total float64
	var parsed bool
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		w, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing power draw %q: %w", line, err)
		}
		total += w
		parsed = true
	}
	if !parsed {
		return 0, fmt.Errorf("no power readings in nvidia-smi output")
	}
	return total, nil
}
