// Package sysinfo gathers static machine metadata for the emissions record:
// OS name and version, CPU count and model, GPU count and model, and
// installed memory. Uses gopsutil for cross-platform host data with an
// nvidia-smi fallback for GPU identification.
//
// Results are cached since none of this changes during a session.
package sysinfo

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

// Info holds the collected machine metadata.
type Info struct {
	OS         string  // e.g. "ubuntu 22.04", "darwin 14.2.1"
	CPUCount   int     // logical CPU count
	CPUModel   string  // e.g. "AMD Ryzen 7 3700X 8-Core Processor"
	GPUCount   int     // 0 when no GPU is detected
	GPUModel   string  // empty when no GPU is detected
	RAMTotalGB float64 // installed memory in GiB
}

// Collector collects machine metadata. Results are cached after the first
// successful collection.
type Collector struct {
	logger *zap.Logger
	once   sync.Once
	cache  Info
}

// NewCollector creates a new system metadata collector.
func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{logger: logger}
}

// Collect gathers machine metadata. Partial failures degrade to empty
// fields; this never returns an error.
func (c *Collector) Collect(ctx context.Context) Info {
	c.once.Do(func() {
		c.cache = c.collect(ctx)
	})
	return c.cache
}

func (c *Collector) collect(ctx context.Context) Info {
	var info Info

	if h, err := host.InfoWithContext(ctx); err == nil {
		info.OS = strings.TrimSpace(h.Platform + " " + h.PlatformVersion)
	} else {
		c.logger.Warn("OS detection failed", zap.Error(err))
	}

	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.CPUCount = n
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		info.CPUModel = infos[0].ModelName
	} else if err != nil {
		c.logger.Warn("CPU model detection failed", zap.Error(err))
	}

	if v, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.RAMTotalGB = float64(v.Total) / (1 << 30)
	} else {
		c.logger.Warn("Memory size detection failed", zap.Error(err))
	}

	info.GPUCount, info.GPUModel = detectGPU(ctx)

	return info
}

// detectGPU queries nvidia-smi for installed GPU names. A machine without
// a usable NVIDIA driver reports zero GPUs.
func detectGPU(ctx context.Context) (int, string) {
	if _, err := exec.LookPath("nvidia-smi"); err != nil {
		return 0, ""
	}
	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=name", "--format=csv,noheader").Output()
	if err != nil {
		return 0, ""
	}
	return parseGPUNames(string(out))
}

// parseGPUNames extracts the GPU count and a model label from nvidia-smi
// output, one name per line. Multiple identical boards collapse into
// "N x <model>".
func parseGPUNames(out string) (int, string) {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	switch len(names) {
	case 0:
		return 0, ""
	case 1:
		return 1, names[0]
	default:
		return len(names), fmt.Sprintf("%d x %s", len(names), names[0])
	}
}
