// Package power provides instantaneous power-draw samplers for the hardware
// domains tracked by a session: CPU, RAM and GPU. Each sampler returns watts
// at the moment of the call; energy integration over time happens in the
// tracker, not here.
package power

import "context"

// Sampler is the interface all power samplers implement.
// Each sampler estimates the instantaneous draw of one hardware domain.
type Sampler interface {
	// Name returns the unique identifier for this sampler.
	Name() string

	// Watts returns the estimated instantaneous power draw in watts.
	// The context allows for cancellation and timeout control.
	Watts(ctx context.Context) (float64, error)
}

// Fixed is a Sampler pinned to a constant wattage. It implements the
// per-domain calibration override: when configured, it replaces the live
// sampler for the whole session.
type Fixed struct {
	name  string
	watts float64
}

// NewFixed creates a sampler that always reports the given wattage.
func NewFixed(name string, watts float64) *Fixed {
	return &Fixed{name: name, watts: watts}
}

// Name returns the sampler identifier.
func (f *Fixed) Name() string { return f.name }

// Watts returns the pinned wattage.
func (f *Fixed) Watts(context.Context) (float64, error) { return f.watts, nil }
