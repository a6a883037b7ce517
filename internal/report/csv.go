package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jszwec/csvutil"
	"go.uber.org/zap"
)

// row is the durable record schema: one line per completed session. The
// field order is fixed for compatibility with downstream tooling — never
// reorder these columns.
type row struct {
	Timestamp              string  `csv:"timestamp"`
	ProjectName            string  `csv:"project_name"`
	RunID                  string  `csv:"run_id"`
	ExperimentID           string  `csv:"experiment_id"`
	Duration               float64 `csv:"duration"`
	Emissions              float64 `csv:"emissions"`
	EmissionsRate          float64 `csv:"emissions_rate"`
	CPUPower               float64 `csv:"cpu_power"`
	GPUPower               float64 `csv:"gpu_power"`
	RAMPower               float64 `csv:"ram_power"`
	CPUEnergy              float64 `csv:"cpu_energy"`
	GPUEnergy              float64 `csv:"gpu_energy"`
	RAMEnergy              float64 `csv:"ram_energy"`
	EnergyConsumed         float64 `csv:"energy_consumed"`
	CountryName            string  `csv:"country_name"`
	CountryISOCode         string  `csv:"country_iso_code"`
	Region                 string  `csv:"region"`
	CloudProvider          string  `csv:"cloud_provider"`
	CloudRegion            string  `csv:"cloud_region"`
	OS                     string  `csv:"os"`
	LanguageRuntimeVersion string  `csv:"language_runtime_version"`
	LibraryVersion         string  `csv:"library_version"`
	CPUCount               int     `csv:"cpu_count"`
	CPUModel               string  `csv:"cpu_model"`
	GPUCount               int     `csv:"gpu_count"`
	GPUModel               string  `csv:"gpu_model"`
	Longitude              float64 `csv:"longitude"`
	Latitude               float64 `csv:"latitude"`
	RAMTotalSize           float64 `csv:"ram_total_size"`
	TrackingMode           string  `csv:"tracking_mode"`
	OnCloud                string  `csv:"on_cloud"`
	PUE                    float64 `csv:"pue"`
}

// CSVWriter appends one record per completed session to a CSV file,
// writing the header when the file is created.
type CSVWriter struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewCSVWriter creates a CSV record writer for the given path.
func NewCSVWriter(path string, logger *zap.Logger) *CSVWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVWriter{path: path, logger: logger}
}

// Write appends the result as one CSV row. The header is emitted only when
// the file is new or empty.
func (w *CSVWriter) Write(result EmissionsResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("opening record file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat record file: %w", err)
	}

	cw := csv.NewWriter(f)
	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = stat.Size() == 0

	if err := enc.Encode(toRow(result)); err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}

	w.logger.Debug("Emissions record appended", zap.String("path", w.path))
	return nil
}

func toRow(r EmissionsResult) row {
	onCloud := "N"
	cloudProvider, cloudRegion := "", ""

	return row{
		Timestamp:      r.Timestamp.UTC().Format(time.RFC3339),
		ProjectName:    r.ProjectName,
		RunID:          r.RunID,
		ExperimentID:   r.ExperimentID,
		Duration:       r.DurationSeconds,
		Emissions:      r.EmissionsKg,
		EmissionsRate:  r.EmissionsRateKgPerSec,
		CPUPower:       r.CPUPowerWatts,
		GPUPower:       r.GPUPowerWatts,
		RAMPower:       r.RAMPowerWatts,
		CPUEnergy:      r.CPUEnergyKWh,
		GPUEnergy:      r.GPUEnergyKWh,
		RAMEnergy:      r.RAMEnergyKWh,
		EnergyConsumed: r.EnergyConsumedKWh,
		CountryName:    r.Location.CountryName,
		CountryISOCode: r.Location.CountryCode,
		Region:         r.Location.Region,
		CloudProvider:  cloudProvider,
		CloudRegion:    cloudRegion,
		OS:             r.System.OS,
		// language_runtime_version intentionally left empty for this system.
		LibraryVersion: r.LibraryVersion,
		CPUCount:       r.System.CPUCount,
		CPUModel:       r.System.CPUModel,
		GPUCount:       r.System.GPUCount,
		GPUModel:       r.System.GPUModel,
		Longitude:      r.Location.Longitude,
		Latitude:       r.Location.Latitude,
		RAMTotalSize:   r.System.RAMTotalGB,
		TrackingMode:   "machine",
		OnCloud:        onCloud,
		PUE:            r.PUE,
	}
}
