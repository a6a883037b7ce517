package tracker

// energyIncrementKWh converts one power sample into the energy it
// represents over the elapsed window: watt-seconds scaled to kWh, with the
// facility PUE applied uniformly.
func energyIncrementKWh(watts, elapsedSeconds, pue float64) float64 {
	return watts * elapsedSeconds / 3600 * pue / 1000
}

// emissionsKg converts accumulated energy and a carbon-intensity factor
// into kilograms of CO₂.
func emissionsKg(intensityGPerKWh, energyKWh float64) float64 {
	return intensityGPerKWh / 1000 * energyKWh
}

// emissionsRate returns kilograms of CO₂ per second over the session
// duration, guarding the zero-duration session.
func emissionsRate(kg, durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	return kg / durationSeconds
}
