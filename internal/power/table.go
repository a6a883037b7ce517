package power

import "strings"

// TableEntry pairs a hardware model substring with a rated wattage.
type TableEntry struct {
	Pattern string
	Watts   float64
}

// PatternTable maps a hardware model name to a wattage by ordered substring
// matching. Match rule: entries are tried in order, the pattern is compared
// case-insensitively against the model string, and the first entry whose
// pattern is a substring of the model wins. When nothing matches, the
// table's default wattage applies.
type PatternTable struct {
	entries  []TableEntry
	fallback float64
}

// NewPatternTable builds a table from an ordered entry list and a default
// wattage for unmatched models.
func NewPatternTable(entries []TableEntry, fallback float64) PatternTable {
	return PatternTable{entries: entries, fallback: fallback}
}

// Lookup returns the wattage for the given model name per the match rule.
func (t PatternTable) Lookup(model string) float64 {
	lower := strings.ToLower(model)
	for _, e := range t.entries {
		if strings.Contains(lower, strings.ToLower(e.Pattern)) {
			return e.Watts
		}
	}
	return t.fallback
}

// defaultCPUTDP rates CPU families by manufacturer TDP. More specific
// patterns must come before broader ones; order is the match priority.
var defaultCPUTDP = NewPatternTable([]TableEntry{
	{"threadripper", 280},
	{"epyc", 225},
	{"xeon", 150},
	{"ryzen 9", 105},
	{"ryzen 7", 65},
	{"ryzen 5", 65},
	{"ryzen 3", 65},
	{"i9", 125},
	{"i7", 95},
	{"i5", 65},
	{"i3", 51},
	{"apple m3", 22},
	{"apple m2", 22},
	{"apple m1", 20},
	{"celeron", 35},
	{"pentium", 46},
	{"atom", 10},
}, 85)
