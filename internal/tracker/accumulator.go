package tracker

// Domain is a tracked hardware domain.
type Domain int

const (
	DomainCPU Domain = iota
	DomainRAM
	DomainGPU

	numDomains = 3
)

// String returns the domain name.
func (d Domain) String() string {
	switch d {
	case DomainCPU:
		return "cpu"
	case DomainRAM:
		return "ram"
	case DomainGPU:
		return "gpu"
	default:
		return "unknown"
	}
}

// domains lists all tracked domains in a fixed order.
var domains = [numDomains]Domain{DomainCPU, DomainRAM, DomainGPU}

// Accumulator holds cumulative energy per domain in kWh. Each value starts
// at zero, only ever grows while the session runs, and freezes on stop.
type Accumulator struct {
	kwh [numDomains]float64
}

// Add credits the given energy increment to a domain. Negative increments
// are impossible by construction (watts and elapsed are both clamped to
// non-negative upstream).
func (a *Accumulator) Add(d Domain, kwh float64) {
	a.kwh[d] += kwh
}

// Energy returns the cumulative energy of one domain in kWh.
func (a *Accumulator) Energy(d Domain) float64 {
	return a.kwh[d]
}

// Total returns the summed energy across all domains. It is always
// recomputed from the per-domain values rather than tracked separately,
// so the sum can never drift from its parts under accumulated rounding.
func (a *Accumulator) Total() float64 {
	return a.kwh[DomainCPU] + a.kwh[DomainRAM] + a.kwh[DomainGPU]
}
