package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/carbontrace/carbontrace/internal/geo"
	"github.com/carbontrace/carbontrace/internal/sysinfo"
)

// recordColumns is the fixed durable-record column order.
var recordColumns = []string{
	"timestamp", "project_name", "run_id", "experiment_id",
	"duration", "emissions", "emissions_rate",
	"cpu_power", "gpu_power", "ram_power",
	"cpu_energy", "gpu_energy", "ram_energy", "energy_consumed",
	"country_name", "country_iso_code", "region",
	"cloud_provider", "cloud_region",
	"os", "language_runtime_version", "library_version",
	"cpu_count", "cpu_model", "gpu_count", "gpu_model",
	"longitude", "latitude", "ram_total_size",
	"tracking_mode", "on_cloud", "pue",
}

func sampleResult() EmissionsResult {
	return EmissionsResult{
		Timestamp:             time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		ProjectName:           "demo",
		RunID:                 "run-1",
		DurationSeconds:       120,
		EmissionsKg:           1.9792e-5,
		EmissionsRateKgPerSec: 1.6e-7,
		CPUPowerWatts:         65,
		RAMPowerWatts:         10,
		CPUEnergyKWh:          3.5e-5,
		RAMEnergyKWh:          6.6e-6,
		EnergyConsumedKWh:     4.1667e-5,
		Location: geo.Location{
			CountryCode: "USA",
			CountryName: "United States",
			Region:      "CA",
		},
		System: sysinfo.Info{
			OS:         "ubuntu 22.04",
			CPUCount:   16,
			CPUModel:   "AMD Ryzen 7 3700X",
			RAMTotalGB: 32,
		},
		PUE:            1.0,
		LibraryVersion: "0.1.0",
	}
}

func TestCSVWriter_SchemaColumnOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emissions.csv")
	w := NewCSVWriter(path, nil)

	if err := w.Write(sampleResult()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d rows, want header + 1 record", len(records))
	}

	header := records[0]
	if len(header) != len(recordColumns) {
		t.Fatalf("header has %d columns, want %d", len(header), len(recordColumns))
	}
	for i, want := range recordColumns {
		if header[i] != want {
			t.Errorf("column %d = %q, want %q", i, header[i], want)
		}
	}
}

func TestCSVWriter_AppendsWithoutRepeatingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emissions.csv")
	w := NewCSVWriter(path, nil)

	if err := w.Write(sampleResult()); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(sampleResult()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 records", len(lines))
	}
	if strings.HasPrefix(lines[1], "timestamp") || strings.HasPrefix(lines[2], "timestamp") {
		t.Error("header repeated on append")
	}
}

func TestCSVWriter_RecordValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emissions.csv")
	w := NewCSVWriter(path, nil)

	if err := w.Write(sampleResult()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	rec := records[1]
	byName := make(map[string]string)
	for i, name := range records[0] {
		byName[name] = rec[i]
	}

	if byName["timestamp"] != "2026-03-14T09:26:53Z" {
		t.Errorf("timestamp = %q", byName["timestamp"])
	}
	if byName["country_iso_code"] != "USA" || byName["region"] != "CA" {
		t.Errorf("location columns = %q/%q", byName["country_iso_code"], byName["region"])
	}
	if byName["language_runtime_version"] != "" {
		t.Errorf("language_runtime_version = %q, want empty", byName["language_runtime_version"])
	}
	if byName["tracking_mode"] != "machine" || byName["on_cloud"] != "N" {
		t.Errorf("tracking columns = %q/%q", byName["tracking_mode"], byName["on_cloud"])
	}
}

func TestConsoleSummary_WritesReadableBlock(t *testing.T) {
	var buf bytes.Buffer
	if err := (ConsoleSummary{Out: &buf}).Write(sampleResult()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"demo", "United States", "kg CO2eq"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
