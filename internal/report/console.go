package report

import (
	"fmt"
	"io"
	"os"
	"time"
)

// ConsoleSummary prints a human-readable session summary. It is one of the
// default result sinks and never touches accumulators or session state.
type ConsoleSummary struct {
	Out io.Writer // defaults to os.Stdout
}

// Write prints the summary block.
func (c ConsoleSummary) Write(result EmissionsResult) error {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}

	duration := time.Duration(result.DurationSeconds * float64(time.Second)).Round(time.Millisecond)

	_, err := fmt.Fprintf(out,
		"\n"+
			"Project:          %s\n"+
			"Run:              %s\n"+
			"Duration:         %s\n"+
			"Energy consumed:  %.6f kWh (cpu %.6f, gpu %.6f, ram %.6f)\n"+
			"Location:         %s (%s) %s\n"+
			"Emissions:        %.6f kg CO2eq\n"+
			"Emissions rate:   %.9f kg CO2eq/s\n",
		result.ProjectName,
		result.RunID,
		duration,
		result.EnergyConsumedKWh, result.CPUEnergyKWh, result.GPUEnergyKWh, result.RAMEnergyKWh,
		result.Location.CountryName, result.Location.CountryCode, result.Location.Region,
		result.EmissionsKg,
		result.EmissionsRateKgPerSec,
	)
	return err
}
