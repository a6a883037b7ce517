package power

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// raplEnergyPath is the Intel RAPL package-0 cumulative energy counter in
// microjoules, present on most modern x86 Linux machines.
const raplEnergyPath = "/sys/class/powercap/intel-rapl/intel-rapl:0/energy_uj"

// raplReader derives watts from consecutive readings of the RAPL cumulative
// energy counter. The first call only primes the baseline and reports no
// power; counter wrap-around between readings is handled.
type raplReader struct {
	path       string
	clock      func() time.Time
	lastEnergy uint64
	lastTime   time.Time
	primed     bool
}

func newRAPLReader(path string) *raplReader {
	if path == "" {
		path = raplEnergyPath
	}
	return &raplReader{path: path, clock: time.Now}
}

// available reports whether the RAPL counter exists and is readable.
func (r *raplReader) available() bool {
	_, err := os.ReadFile(r.path)
	return err == nil
}

// watts reads the energy counter and converts the delta since the previous
// reading into average power over that window.
func (r *raplReader) watts() (float64, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		return 0, fmt.Errorf("reading rapl counter: %w", err)
	}
	energy, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing rapl counter: %w", err)
	}

	now := r.clock()
	if !r.primed {
		r.lastEnergy = energy
		r.lastTime = now
		r.primed = true
		return 0, fmt.Errorf("rapl counter primed, no delta yet")
	}

	deltaEnergy := float64(energy - r.lastEnergy)
	if energy < r.lastEnergy {
		// Counter wrapped since the last reading.
		deltaEnergy = float64((^uint64(0) - r.lastEnergy) + energy)
	}
	deltaTime := now.Sub(r.lastTime).Seconds()

	r.lastEnergy = energy
	r.lastTime = now

	if deltaTime <= 0 {
		return 0, fmt.Errorf("rapl readings too close together")
	}

	// microjoules / seconds -> watts
	return deltaEnergy / 1e6 / deltaTime, nil
}
