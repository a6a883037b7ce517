// Package report defines the emissions result produced when a tracking
// session stops, and the sinks it is handed to: an append-only CSV record
// file and a human-readable console summary. Sinks are independent and
// replaceable; a failing sink never alters the session's result.
package report

import (
	"time"

	"github.com/carbontrace/carbontrace/internal/geo"
	"github.com/carbontrace/carbontrace/internal/sysinfo"
)

// EmissionsResult is the final outcome of one tracking session. It is
// created once, when the session stops, and is immutable thereafter.
type EmissionsResult struct {
	Timestamp    time.Time
	ProjectName  string
	RunID        string
	ExperimentID string

	DurationSeconds       float64
	EmissionsKg           float64
	EmissionsRateKgPerSec float64

	// Latest observed power per domain, in watts (not averaged).
	CPUPowerWatts float64
	GPUPowerWatts float64
	RAMPowerWatts float64

	// Cumulative energy per domain, in kWh.
	CPUEnergyKWh float64
	GPUEnergyKWh float64
	RAMEnergyKWh float64

	// EnergyConsumedKWh is the sum of the per-domain energies.
	EnergyConsumedKWh float64

	Location geo.Location
	System   sysinfo.Info

	PUE            float64
	LibraryVersion string
}

// Writer receives a completed session's result. Implementations must not
// mutate it.
type Writer interface {
	Write(result EmissionsResult) error
}
