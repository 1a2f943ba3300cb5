// Package pipeline turns one FIT file into analysis-ready artifacts: the
// export bundle, a canonical per-sample table (Parquet or CSV), a message
// index and an activity summary.
package pipeline

import "time"

// Options configures one pipeline run.
type Options struct {
	FitPath    string
	OutDir     string
	FTPWatts   float64
	Format     string // parquet|csv
	Overwrite  bool
	CopySource bool
	Force      bool
}

// Result returns generated output paths.
type Result struct {
	OutputDir            string `json:"output_dir"`
	ManifestPath         string `json:"manifest_path"`
	RecordsPath          string `json:"records_path"`
	SourceCopyPath       string `json:"source_copy_path,omitempty"`
	CanonicalSamplesPath string `json:"canonical_samples_path"`
	MessagesIndexPath    string `json:"messages_index_path"`
	ActivitySummaryPath  string `json:"activity_summary_path"`
}

// CanonicalSample represents one record-message sample row.
type CanonicalSample struct {
	TSUTCISO     string    `json:"ts_utc_iso"`
	Timestamp    time.Time `json:"-"`
	ElapsedS     float64   `json:"elapsed_s"`
	PowerW       *float64  `json:"power_w,omitempty"`
	HRBPM        *float64  `json:"hr_bpm,omitempty"`
	CadenceRPM   *float64  `json:"cadence_rpm,omitempty"`
	SpeedMPS     *float64  `json:"speed_mps,omitempty"`
	DistanceM    *float64  `json:"distance_m,omitempty"`
	AltitudeM    *float64  `json:"altitude_m,omitempty"`
	TemperatureC *float64  `json:"temperature_c,omitempty"`
	GradePct     *float64  `json:"grade_pct,omitempty"`
	ValidPower   bool      `json:"valid_power"`
	ValidHR      bool      `json:"valid_hr"`
	ValidCadence bool      `json:"valid_cadence"`
	FileOffset   int64     `json:"file_offset"`
	RecordIndex  int       `json:"record_index"`
}

// MessageIndexFile contains local/global message mapping metadata.
type MessageIndexFile struct {
	LocalMessageTypes []LocalMessageIndex `json:"local_message_types"`
	ReverseIndex      map[string][]int    `json:"reverse_index"`
}

// LocalMessageIndex maps one local message type to its latest global message
// and the field names observed in its data records.
type LocalMessageIndex struct {
	LocalMessageType  int      `json:"local_message_type"`
	GlobalMessageNum  int      `json:"global_message_num"`
	GlobalMessageName string   `json:"global_message_name"`
	FieldNames        []string `json:"field_names,omitempty"`
}

// ActivitySummaryFile contains one-session aggregate metrics.
type ActivitySummaryFile struct {
	DurationS     float64  `json:"duration_s"`
	AvgPowerW     float64  `json:"avg_power_w"`
	NPW           float64  `json:"np_w"`
	MaxPowerW     float64  `json:"max_power_w"`
	AvgHRBPM      float64  `json:"avg_hr_bpm"`
	MaxHRBPM      float64  `json:"max_hr_bpm"`
	AvgCadenceRPM float64  `json:"avg_cadence_rpm"`
	MaxCadenceRPM float64  `json:"max_cadence_rpm"`
	TotalWorkKJ   float64  `json:"total_work_kj"`
	FTPWUsed      *float64 `json:"ftp_w_used,omitempty"`
	IF            *float64 `json:"if,omitempty"`
	TSSLike       *float64 `json:"tss_like,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}
