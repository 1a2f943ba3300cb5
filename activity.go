// Package fitactivity summarizes a decoded activity file: session metrics,
// lap breakdown, power analysis and generated training notes.
package fitactivity

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"fit-decoder/fitproto"
	"fit-decoder/profile"
)

const secondsPerHour = 3600.0

// Config controls decoding and the optional athlete-specific inputs.
type Config struct {
	FTPWatts float64
	Profile  *profile.Profile
	Options  fitproto.Options
}

// Summary contains extracted metrics and generated notes for one activity.
// Speeds and distances are in base units (m/s, m); Analyze expects the
// decode to have run without unit conversion.
type Summary struct {
	FilePath          string          `json:"file_path,omitempty"`
	Sport             string          `json:"sport"`
	SubSport          string          `json:"sub_sport"`
	StartTime         time.Time       `json:"start_time"`
	EndTime           time.Time       `json:"end_time"`
	ElapsedSeconds    float64         `json:"elapsed_seconds"`
	DistanceMeters    float64         `json:"distance_meters"`
	Calories          int             `json:"calories"`
	AvgSpeedMps       float64         `json:"avg_speed_mps"`
	MaxSpeedMps       float64         `json:"max_speed_mps"`
	AvgPowerWatts     float64         `json:"avg_power_watts"`
	MaxPowerWatts     float64         `json:"max_power_watts"`
	NormalizedPower   float64         `json:"normalized_power_watts"`
	VariabilityIndex  float64         `json:"variability_index"`
	WorkKilojoules    float64         `json:"work_kilojoules"`
	AvgHeartRate      float64         `json:"avg_heart_rate_bpm"`
	MaxHeartRate      float64         `json:"max_heart_rate_bpm"`
	AvgCadence        float64         `json:"avg_cadence_rpm"`
	MaxCadence        float64         `json:"max_cadence_rpm"`
	FTPWatts          float64         `json:"ftp_watts"`
	FTPSource         string          `json:"ftp_source"`
	IntensityFactor   float64         `json:"intensity_factor"`
	TrainingStress    float64         `json:"training_stress_score"`
	Best20MinPower    float64         `json:"best_20min_power_watts"`
	PowerHRDecoupling float64         `json:"power_hr_decoupling_pct"`
	PowerZones        []ZoneDuration  `json:"power_zones,omitempty"`
	Laps              []LapSummary    `json:"laps,omitempty"`
	Intervals         IntervalSummary `json:"intervals"`
	RecordCount       int             `json:"record_count"`
	Notes             string          `json:"notes"`
}

// ZoneDuration stores duration spent in a given FTP-based power zone.
type ZoneDuration struct {
	Zone       string  `json:"zone"`
	MinPctFTP  float64 `json:"min_pct_ftp"`
	MaxPctFTP  float64 `json:"max_pct_ftp"`
	Seconds    float64 `json:"seconds"`
	Percentage float64 `json:"percentage"`
}

// LapSummary is a compact lap-level view for interval and pacing analysis.
type LapSummary struct {
	Index              int     `json:"index"`
	StartOffsetSeconds float64 `json:"start_offset_seconds"`
	EndOffsetSeconds   float64 `json:"end_offset_seconds"`
	DurationSeconds    float64 `json:"duration_seconds"`
	DistanceMeters     float64 `json:"distance_meters"`
	AvgPowerWatts      float64 `json:"avg_power_watts"`
	MaxPowerWatts      float64 `json:"max_power_watts"`
	AvgHeartRate       float64 `json:"avg_heart_rate_bpm"`
	AvgCadence         float64 `json:"avg_cadence_rpm"`
	Label              string  `json:"label"`
}

// IntervalSummary captures the detected interval structure of the workout.
type IntervalSummary struct {
	WorkCount                  int     `json:"work_count"`
	RecoveryCount              int     `json:"recovery_count"`
	AvgWorkDurationSeconds     float64 `json:"avg_work_duration_seconds"`
	AvgRecoveryDurationSeconds float64 `json:"avg_recovery_duration_seconds"`
	AvgWorkPowerWatts          float64 `json:"avg_work_power_watts"`
	AvgRecoveryPowerWatts      float64 `json:"avg_recovery_power_watts"`
	WorkPowerChangePct         float64 `json:"work_power_change_pct"`
}

type recordSeries struct {
	start       time.Time
	end         time.Time
	durationSec float64

	powerSamples []float64
	powerForNP   []float64
	hrSamples    []float64
	cadSamples   []float64
	speedSamples []float64

	pairedPower []float64
	pairedHR    []float64

	lastDistanceMeters float64
	workKJ             float64
}

// AnalyzeFile decodes and analyzes an activity FIT file.
func AnalyzeFile(path string, cfg Config) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read FIT file: %w", err)
	}
	res, err := fitproto.DecodeBytes(data, cfg.Profile, cfg.Options)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	s, err := Analyze(res.Records, cfg)
	if err != nil {
		return nil, err
	}
	s.FilePath = path
	return s, nil
}

// Analyze builds a summary from decoded records. The first session message
// provides the headline totals; record messages fill whatever the session
// leaves blank.
func Analyze(records []fitproto.Record, cfg Config) (*Summary, error) {
	var session map[string]any
	var laps []map[string]any
	var rows []map[string]any
	for _, r := range records {
		switch r.Kind {
		case "session":
			if session == nil {
				session = r.Fields
			}
		case "lap":
			laps = append(laps, r.Fields)
		case "record":
			rows = append(rows, r.Fields)
		}
	}
	if session == nil && len(rows) == 0 {
		return nil, errors.New("no session or record messages in file")
	}

	series := buildRecordSeries(rows)

	s := &Summary{
		Sport:       strField(session, "sport"),
		SubSport:    strField(session, "sub_sport"),
		RecordCount: len(rows),
	}

	s.StartTime, _ = timeField(session, "start_time")
	s.EndTime, _ = timeField(session, "timestamp")
	if s.StartTime.IsZero() {
		s.StartTime = series.start
	}
	if s.EndTime.IsZero() {
		s.EndTime = series.end
	}

	s.ElapsedSeconds = numOrZero(session, "total_timer_time")
	if s.ElapsedSeconds == 0 {
		s.ElapsedSeconds = numOrZero(session, "total_elapsed_time")
	}
	if s.ElapsedSeconds == 0 {
		s.ElapsedSeconds = series.durationSec
	}
	s.DistanceMeters = numOrZero(session, "total_distance")
	if s.DistanceMeters == 0 {
		s.DistanceMeters = series.lastDistanceMeters
	}
	s.Calories = int(numOrZero(session, "total_calories"))

	s.AvgSpeedMps = numOrZero(session, "avg_speed")
	if s.AvgSpeedMps == 0 && s.ElapsedSeconds > 0 {
		s.AvgSpeedMps = s.DistanceMeters / s.ElapsedSeconds
	}
	s.MaxSpeedMps = numOrZero(session, "max_speed")
	if s.MaxSpeedMps == 0 {
		s.MaxSpeedMps = maxValue(series.speedSamples)
	}

	s.AvgPowerWatts = numOrZero(session, "avg_power")
	if s.AvgPowerWatts == 0 {
		s.AvgPowerWatts = average(series.powerSamples)
	}
	s.MaxPowerWatts = numOrZero(session, "max_power")
	if s.MaxPowerWatts == 0 {
		s.MaxPowerWatts = maxValue(series.powerSamples)
	}

	s.NormalizedPower = numOrZero(session, "normalized_power")
	if s.NormalizedPower == 0 {
		s.NormalizedPower = normalizedPower(series.powerForNP)
	}
	if s.NormalizedPower == 0 {
		s.NormalizedPower = s.AvgPowerWatts
	}

	s.WorkKilojoules = series.workKJ
	if s.WorkKilojoules == 0 && s.AvgPowerWatts > 0 && s.ElapsedSeconds > 0 {
		s.WorkKilojoules = s.AvgPowerWatts * s.ElapsedSeconds / 1000.0
	}

	s.AvgHeartRate = numOrZero(session, "avg_heart_rate")
	if s.AvgHeartRate == 0 {
		s.AvgHeartRate = average(series.hrSamples)
	}
	s.MaxHeartRate = numOrZero(session, "max_heart_rate")
	if s.MaxHeartRate == 0 {
		s.MaxHeartRate = maxValue(series.hrSamples)
	}

	s.AvgCadence = numOrZero(session, "avg_cadence")
	if s.AvgCadence == 0 {
		s.AvgCadence = average(series.cadSamples)
	}
	s.MaxCadence = numOrZero(session, "max_cadence")
	if s.MaxCadence == 0 {
		s.MaxCadence = maxValue(series.cadSamples)
	}

	s.Best20MinPower = bestRollingPower(series.powerForNP, 20*60)
	s.FTPWatts = safePositive(cfg.FTPWatts)
	if s.FTPWatts > 0 {
		s.FTPSource = "input"
	} else {
		estimated := estimateFTP(series.powerForNP)
		if estimated > 0 {
			s.FTPWatts = estimated
			s.FTPSource = "estimated"
		} else {
			s.FTPSource = "unavailable"
		}
	}

	if s.AvgPowerWatts > 0 {
		s.VariabilityIndex = s.NormalizedPower / s.AvgPowerWatts
	}
	if s.FTPWatts > 0 && s.NormalizedPower > 0 {
		s.IntensityFactor = s.NormalizedPower / s.FTPWatts
	}
	if s.ElapsedSeconds > 0 && s.IntensityFactor > 0 {
		s.TrainingStress = (s.ElapsedSeconds / secondsPerHour) * s.IntensityFactor * s.IntensityFactor * 100.0
	}

	s.PowerHRDecoupling = powerHRDecoupling(series.pairedPower, series.pairedHR)
	s.PowerZones = buildPowerZones(series.powerForNP, s.FTPWatts)
	s.Laps, s.Intervals = summarizeLaps(laps, s.AvgPowerWatts)
	s.Notes = BuildTrainingNotes(s)

	return s, nil
}

func buildRecordSeries(rows []map[string]any) recordSeries {
	rs := recordSeries{}
	if len(rows) == 0 {
		return rs
	}

	type sample struct {
		ts     time.Time
		hasTS  bool
		fields map[string]any
	}
	samples := make([]sample, 0, len(rows))
	for _, fields := range rows {
		ts, ok := timeField(fields, "timestamp")
		samples = append(samples, sample{ts: ts, hasTS: ok, fields: fields})
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].ts.Before(samples[j].ts)
	})

	var (
		haveStart   bool
		lastTS      time.Time
		haveLastTS  bool
		lastPower   float64
		haveLastPwr bool
		workJoules  float64
	)

	for _, entry := range samples {
		fields := entry.fields
		if entry.hasTS {
			if !haveStart {
				rs.start = entry.ts
				haveStart = true
			}
			rs.end = entry.ts
		}

		power, hasPower := numField(fields, "power")
		hr, hasHR := numField(fields, "heart_rate")
		cadence, hasCadence := numField(fields, "cadence")
		speed, hasSpeed := numField(fields, "enhanced_speed")
		if !hasSpeed {
			speed, hasSpeed = numField(fields, "speed")
		}

		if hasPower {
			rs.powerSamples = append(rs.powerSamples, power)
		}
		if hasHR {
			rs.hrSamples = append(rs.hrSamples, hr)
		}
		if hasCadence {
			rs.cadSamples = append(rs.cadSamples, cadence)
		}
		if hasSpeed && speed >= 0 {
			rs.speedSamples = append(rs.speedSamples, speed)
		}
		if hasPower && hasHR && hr > 0 {
			rs.pairedPower = append(rs.pairedPower, power)
			rs.pairedHR = append(rs.pairedHR, hr)
		}

		if distance := numOrZero(fields, "distance"); distance > 0 {
			rs.lastDistanceMeters = distance
		}

		if hasPower {
			if haveLastTS && entry.hasTS && entry.ts.After(lastTS) && haveLastPwr {
				delta := entry.ts.Sub(lastTS).Seconds()
				if delta > 0 && delta <= 5 {
					workJoules += lastPower * delta
				}

				// Recording gaps up to 30 s are backfilled so the
				// 30-second rolling average stays honest.
				missing := int(math.Round(delta)) - 1
				if missing > 0 && missing <= 30 {
					for i := 0; i < missing; i++ {
						rs.powerForNP = append(rs.powerForNP, lastPower)
					}
				}
			}
			rs.powerForNP = append(rs.powerForNP, power)
			lastPower = power
			haveLastPwr = true
		}

		if entry.hasTS {
			lastTS = entry.ts
			haveLastTS = true
		}
	}

	if !rs.start.IsZero() && !rs.end.IsZero() && rs.end.After(rs.start) {
		rs.durationSec = rs.end.Sub(rs.start).Seconds()
	}
	if workJoules == 0 && len(rs.powerSamples) > 0 {
		for _, p := range rs.powerSamples {
			workJoules += p
		}
	}
	rs.workKJ = workJoules / 1000.0

	return rs
}

func summarizeLaps(laps []map[string]any, sessionAvgPower float64) ([]LapSummary, IntervalSummary) {
	if len(laps) == 0 {
		return nil, IntervalSummary{}
	}

	summaries := make([]LapSummary, 0, len(laps))
	lapPowers := make([]float64, 0, len(laps))
	offset := 0.0
	for idx, lap := range laps {
		duration := numOrZero(lap, "total_timer_time")
		if duration == 0 {
			duration = numOrZero(lap, "total_elapsed_time")
		}

		avgPower := numOrZero(lap, "avg_power")
		if avgPower > 0 {
			lapPowers = append(lapPowers, avgPower)
		}

		summaries = append(summaries, LapSummary{
			Index:              idx + 1,
			StartOffsetSeconds: offset,
			EndOffsetSeconds:   offset + duration,
			DurationSeconds:    duration,
			DistanceMeters:     numOrZero(lap, "total_distance"),
			AvgPowerWatts:      avgPower,
			MaxPowerWatts:      numOrZero(lap, "max_power"),
			AvgHeartRate:       numOrZero(lap, "avg_heart_rate"),
			AvgCadence:         numOrZero(lap, "avg_cadence"),
			Label:              "steady",
		})
		offset += duration
	}

	baselinePower := sessionAvgPower
	if baselinePower <= 0 {
		baselinePower = average(lapPowers)
	}
	if baselinePower <= 0 {
		return summaries, IntervalSummary{}
	}
	hardThreshold := baselinePower * 1.20
	easyThreshold := baselinePower * 0.90

	var workIndices, recoveryIndices []int
	for i := range summaries {
		lap := &summaries[i]
		if lap.AvgPowerWatts <= 0 || lap.DurationSeconds <= 0 {
			continue
		}
		if lap.AvgPowerWatts >= hardThreshold && lap.DurationSeconds >= 90 {
			lap.Label = "work"
			workIndices = append(workIndices, i)
			continue
		}
		if lap.DurationSeconds >= 60 && lap.AvgPowerWatts <= easyThreshold {
			lap.Label = "easy"
		}
	}
	for _, wi := range workIndices {
		next := wi + 1
		if next >= len(summaries) {
			continue
		}
		candidate := &summaries[next]
		if candidate.Label == "easy" {
			candidate.Label = "recovery"
			recoveryIndices = append(recoveryIndices, next)
		}
	}

	intervals := IntervalSummary{
		WorkCount:     len(workIndices),
		RecoveryCount: len(recoveryIndices),
	}

	workPowers := make([]float64, 0, len(workIndices))
	workDurations := make([]float64, 0, len(workIndices))
	for _, idx := range workIndices {
		workPowers = append(workPowers, summaries[idx].AvgPowerWatts)
		workDurations = append(workDurations, summaries[idx].DurationSeconds)
	}
	recoveryPowers := make([]float64, 0, len(recoveryIndices))
	recoveryDurations := make([]float64, 0, len(recoveryIndices))
	for _, idx := range recoveryIndices {
		recoveryPowers = append(recoveryPowers, summaries[idx].AvgPowerWatts)
		recoveryDurations = append(recoveryDurations, summaries[idx].DurationSeconds)
	}

	intervals.AvgWorkPowerWatts = average(workPowers)
	intervals.AvgWorkDurationSeconds = average(workDurations)
	intervals.AvgRecoveryPowerWatts = average(recoveryPowers)
	intervals.AvgRecoveryDurationSeconds = average(recoveryDurations)
	intervals.WorkPowerChangePct = pctChange(firstValue(workPowers), lastValue(workPowers))

	return summaries, intervals
}

func buildPowerZones(powerSamples []float64, ftp float64) []ZoneDuration {
	if ftp <= 0 || len(powerSamples) == 0 {
		return nil
	}

	type boundary struct {
		zone string
		min  float64
		max  float64
	}
	zones := []boundary{
		{zone: "Z1 Active Recovery", min: 0, max: 55},
		{zone: "Z2 Endurance", min: 55, max: 75},
		{zone: "Z3 Tempo", min: 75, max: 90},
		{zone: "Z4 Threshold", min: 90, max: 105},
		{zone: "Z5 VO2", min: 105, max: 120},
		{zone: "Z6 Anaerobic", min: 120, max: 150},
		{zone: "Z7 Neuromuscular", min: 150, max: 1000},
	}

	counts := make([]int, len(zones))
	total := 0
	for _, p := range powerSamples {
		if p < 0 {
			continue
		}
		percent := (p / ftp) * 100.0
		for i, z := range zones {
			if percent >= z.min && percent < z.max {
				counts[i]++
				total++
				break
			}
		}
	}
	if total == 0 {
		return nil
	}

	out := make([]ZoneDuration, 0, len(zones))
	for i, z := range zones {
		seconds := float64(counts[i])
		out = append(out, ZoneDuration{
			Zone:       z.zone,
			MinPctFTP:  z.min,
			MaxPctFTP:  z.max,
			Seconds:    seconds,
			Percentage: (seconds / float64(total)) * 100.0,
		})
	}
	return out
}

func normalizedPower(powerSamples []float64) float64 {
	if len(powerSamples) == 0 {
		return 0
	}
	if len(powerSamples) < 30 {
		return average(powerSamples)
	}

	window := 30
	sum := 0.0
	for i := 0; i < window; i++ {
		sum += powerSamples[i]
	}

	fourthPowerTotal := 0.0
	count := 0
	for i := window - 1; i < len(powerSamples); i++ {
		if i >= window {
			sum += powerSamples[i] - powerSamples[i-window]
		}
		rolling := sum / float64(window)
		fourthPowerTotal += math.Pow(rolling, 4)
		count++
	}
	if count == 0 {
		return average(powerSamples)
	}
	return math.Pow(fourthPowerTotal/float64(count), 0.25)
}

func estimateFTP(powerSamples []float64) float64 {
	best20 := bestRollingPower(powerSamples, 20*60)
	if best20 <= 0 {
		return 0
	}
	return best20 * 0.95
}

func bestRollingPower(powerSamples []float64, seconds int) float64 {
	if len(powerSamples) == 0 || seconds <= 0 {
		return 0
	}
	if len(powerSamples) < seconds {
		return average(powerSamples)
	}

	sum := 0.0
	for i := 0; i < seconds; i++ {
		sum += powerSamples[i]
	}
	best := sum / float64(seconds)
	for i := seconds; i < len(powerSamples); i++ {
		sum += powerSamples[i] - powerSamples[i-seconds]
		current := sum / float64(seconds)
		if current > best {
			best = current
		}
	}
	return best
}

func powerHRDecoupling(power, hr []float64) float64 {
	n := len(power)
	if n == 0 || n != len(hr) || n < 20 {
		return 0
	}
	mid := n / 2

	p1, h1 := average(power[:mid]), average(hr[:mid])
	p2, h2 := average(power[mid:]), average(hr[mid:])
	if p1 == 0 || p2 == 0 || h1 == 0 || h2 == 0 {
		return 0
	}

	firstRatio := p1 / h1
	secondRatio := p2 / h2
	if firstRatio == 0 {
		return 0
	}
	return ((secondRatio / firstRatio) - 1.0) * 100.0
}

func numField(fields map[string]any, name string) (float64, bool) {
	if fields == nil {
		return 0, false
	}
	switch v := fields[name].(type) {
	case float64:
		if isFinite(v) {
			return v, true
		}
	case float32:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func numOrZero(fields map[string]any, name string) float64 {
	v, ok := numField(fields, name)
	if !ok {
		return 0
	}
	return safePositive(v)
}

func strField(fields map[string]any, name string) string {
	if fields == nil {
		return ""
	}
	s, _ := fields[name].(string)
	return s
}

func timeField(fields map[string]any, name string) (time.Time, bool) {
	s := strField(fields, name)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	count := 0
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func maxValue(values []float64) float64 {
	max := 0.0
	found := false
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		if !found || v > max {
			max = v
			found = true
		}
	}
	if !found {
		return 0
	}
	return max
}

func pctChange(start, end float64) float64 {
	if start == 0 {
		return 0
	}
	return ((end / start) - 1.0) * 100.0
}

func firstValue(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[0]
}

func lastValue(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func safePositive(v float64) float64 {
	if !isFinite(v) || v <= 0 {
		return 0
	}
	return v
}
