package tracker

import "time"

// Measurement is one immutable entry of the session's append-only
// measurement log, recorded on every tick (scheduled or final).
type Measurement struct {
	Timestamp time.Time

	// ElapsedSeconds is the time since the previous measurement (or since
	// session start for the first), clamped to >= 0 against clock
	// anomalies.
	ElapsedSeconds float64

	// Instantaneous power per domain at this tick, in watts.
	CPUWatts float64
	RAMWatts float64
	GPUWatts float64

	// Energy added to each domain accumulator by this tick, in kWh.
	CPUIncrementKWh float64
	RAMIncrementKWh float64
	GPUIncrementKWh float64

	// CPUUtilization is the overall CPU utilization percentage at this
	// tick. Informational only; it does not feed the integration.
	CPUUtilization float64
}
