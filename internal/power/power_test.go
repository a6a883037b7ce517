package power

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPatternTable_Lookup(t *testing.T) {
	table := NewPatternTable([]TableEntry{
		{"ryzen 9", 105},
		{"ryzen 7", 65},
		{"xeon", 150},
	}, 85)

	tests := []struct {
		model string
		want  float64
	}{
		{"AMD Ryzen 9 5950X 16-Core Processor", 105},
		{"AMD Ryzen 7 3700X 8-Core Processor", 65},
		{"Intel(R) Xeon(R) Gold 6248 CPU @ 2.50GHz", 150},
		{"XEON PLATINUM", 150}, // case-insensitive
		{"Some Unknown Chip", 85},
		{"", 85},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := table.Lookup(tt.model); got != tt.want {
				t.Errorf("Lookup(%q) = %g, want %g", tt.model, got, tt.want)
			}
		})
	}
}

func TestPatternTable_FirstMatchWins(t *testing.T) {
	table := NewPatternTable([]TableEntry{
		{"ryzen 9", 105},
		{"ryzen", 65},
	}, 85)

	if got := table.Lookup("AMD Ryzen 9 7950X"); got != 105 {
		t.Errorf("Lookup = %g, want the more specific entry (105)", got)
	}
	if got := table.Lookup("AMD Ryzen 5 2600"); got != 65 {
		t.Errorf("Lookup = %g, want the broader entry (65)", got)
	}
}

func TestFixed_ReportsPinnedWatts(t *testing.T) {
	f := NewFixed("cpu", 65)

	if f.Name() != "cpu" {
		t.Errorf("Name() = %q", f.Name())
	}
	w, err := f.Watts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if w != 65 {
		t.Errorf("Watts() = %g, want 65", w)
	}
}

// writeCounter writes a RAPL-style microjoule counter file.
func writeCounter(t *testing.T, path string, value string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(value+"\n"), 0640); err != nil {
		t.Fatal(err)
	}
}

func TestRAPLReader_DerivesWattsFromCounterDelta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "energy_uj")
	writeCounter(t, path, "1000000") // 1 J

	now := time.Now()
	r := newRAPLReader(path)
	r.clock = func() time.Time { return now }

	// First read primes the baseline.
	if _, err := r.watts(); err == nil {
		t.Fatal("first read should report no delta")
	}

	// 50 J consumed over 2 s -> 25 W.
	writeCounter(t, path, "51000000")
	now = now.Add(2 * time.Second)

	w, err := r.watts()
	if err != nil {
		t.Fatal(err)
	}
	if w != 25 {
		t.Errorf("watts() = %g, want 25", w)
	}
}

func TestRAPLReader_HandlesCounterWraparound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "energy_uj")
	writeCounter(t, path, "18446744073709551000") // near uint64 max

	now := time.Now()
	r := newRAPLReader(path)
	r.clock = func() time.Time { return now }
	r.watts() // prime

	writeCounter(t, path, "1000385") // wrapped
	now = now.Add(1 * time.Second)

	w, err := r.watts()
	if err != nil {
		t.Fatal(err)
	}
	if w < 0 {
		t.Errorf("watts() = %g, wrap-around must not yield negative power", w)
	}
	// (uint64max - 18446744073709551000) + 1000385 uJ over 1 s ~= 1.0 W
	if w < 0.9 || w > 1.1 {
		t.Errorf("watts() = %g, want ~1.0 after wrap", w)
	}
}

func TestRAPLReader_MissingCounterUnavailable(t *testing.T) {
	r := newRAPLReader(filepath.Join(t.TempDir(), "nope"))
	if r.available() {
		t.Error("available() = true for a missing counter file")
	}
}

func TestParsePowerDraw(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    float64
		wantErr bool
	}{
		{"single gpu", "71.30\n", 71.30, false},
		{"multiple gpus", "71.30\n250.00\n", 321.30, false},
		{"not available lines skipped", "[N/A]\n35.50\n", 35.50, false},
		{"all unavailable", "[N/A]\n", 0, true},
		{"empty", "", 0, true},
		{"garbage", "watts\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePowerDraw(tt.out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePowerDraw(%q) error = %v, wantErr %v", tt.out, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parsePowerDraw(%q) = %g, want %g", tt.out, got, tt.want)
			}
		})
	}
}
