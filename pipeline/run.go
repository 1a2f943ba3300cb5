package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"fit-decoder/export"
	"fit-decoder/fitproto"
	"fit-decoder/profile"
)

// Run executes the full pipeline and writes all artifacts into OutDir.
func Run(opts Options) (*Result, error) {
	if strings.TrimSpace(opts.FitPath) == "" {
		return nil, fmt.Errorf("fit path is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return nil, fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}

	prof := profile.Default()
	decodeOpts := fitproto.Options{Force: opts.Force}

	bundle, err := export.Export(opts.FitPath, opts.OutDir, prof, decodeOpts, export.Options{
		Overwrite:      opts.Overwrite,
		CopySourceFile: opts.CopySource,
	})
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(opts.FitPath)
	if err != nil {
		return nil, fmt.Errorf("read fit file: %w", err)
	}
	decoded, err := fitproto.DecodeBytes(data, prof, decodeOpts)
	if err != nil {
		return nil, fmt.Errorf("decode fit file: %w", err)
	}

	samples := buildCanonicalSamples(decoded.Records)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no record message samples found")
	}

	canonicalPath := filepath.Join(opts.OutDir, "canonical_samples."+format)
	switch format {
	case "csv":
		if err := writeCanonicalCSV(canonicalPath, samples); err != nil {
			return nil, fmt.Errorf("write canonical csv: %w", err)
		}
	case "parquet":
		if err := writeCanonicalParquet(canonicalPath, samples); err != nil {
			return nil, fmt.Errorf("write canonical parquet: %w", err)
		}
	}

	msgIndex := buildMessagesIndex(decoded.Records)
	msgIndexPath := filepath.Join(opts.OutDir, "messages_index.json")
	if err := writeJSON(msgIndexPath, msgIndex); err != nil {
		return nil, fmt.Errorf("write messages_index.json: %w", err)
	}

	ftp := resolveFTP(decoded.Records, opts.FTPWatts)
	activitySummary := buildActivitySummary(samples, ftp)
	activitySummaryPath := filepath.Join(opts.OutDir, "activity_summary.json")
	if err := writeJSON(activitySummaryPath, activitySummary); err != nil {
		return nil, fmt.Errorf("write activity_summary.json: %w", err)
	}

	return &Result{
		OutputDir:            opts.OutDir,
		ManifestPath:         bundle.ManifestPath,
		RecordsPath:          bundle.RecordsPath,
		SourceCopyPath:       bundle.SourceCopyPath,
		CanonicalSamplesPath: canonicalPath,
		MessagesIndexPath:    msgIndexPath,
		ActivitySummaryPath:  activitySummaryPath,
	}, nil
}

func buildCanonicalSamples(records []fitproto.Record) []CanonicalSample {
	out := make([]CanonicalSample, 0, 4096)
	var firstTS time.Time
	for i, rec := range records {
		if rec.Kind != "record" {
			continue
		}
		tsStr, ok := rec.Fields["timestamp"].(string)
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339, tsStr)
		if err != nil {
			continue
		}
		if firstTS.IsZero() {
			firstTS = ts
		}

		s := CanonicalSample{
			TSUTCISO:    ts.UTC().Format(time.RFC3339),
			Timestamp:   ts,
			ElapsedS:    ts.Sub(firstTS).Seconds(),
			FileOffset:  int64(rec.Offset),
			RecordIndex: i,
		}
		if v := floatField(rec.Fields, "power"); v != nil {
			s.PowerW = v
			s.ValidPower = true
		}
		if v := floatField(rec.Fields, "heart_rate"); v != nil {
			s.HRBPM = v
			s.ValidHR = true
		}
		if v := floatField(rec.Fields, "cadence"); v != nil {
			s.CadenceRPM = v
			s.ValidCadence = true
		}
		if v := firstFloatField(rec.Fields, "enhanced_speed", "speed"); v != nil {
			s.SpeedMPS = v
		}
		if v := floatField(rec.Fields, "distance"); v != nil {
			s.DistanceM = v
		}
		if v := firstFloatField(rec.Fields, "enhanced_altitude", "altitude"); v != nil {
			s.AltitudeM = v
		}
		if v := floatField(rec.Fields, "temperature"); v != nil {
			s.TemperatureC = v
		}
		if v := floatField(rec.Fields, "grade"); v != nil {
			s.GradePct = v
		}
		out = append(out, s)
	}
	return out
}

func buildMessagesIndex(records []fitproto.Record) MessageIndexFile {
	localLatest := make(map[int]LocalMessageIndex)
	fieldSets := make(map[int]map[string]struct{})
	reverseSets := make(map[string]map[int]struct{})

	for _, rec := range records {
		local := int(rec.Local)
		if rec.Kind == "definition" {
			global := int(rec.GlobalNum)
			localLatest[local] = LocalMessageIndex{
				LocalMessageType: local,
				GlobalMessageNum: global,
			}
			fieldSets[local] = make(map[string]struct{})

			gKey := strconv.Itoa(global)
			if _, ok := reverseSets[gKey]; !ok {
				reverseSets[gKey] = make(map[int]struct{})
			}
			reverseSets[gKey][local] = struct{}{}
			continue
		}

		idx, ok := localLatest[local]
		if !ok {
			continue
		}
		idx.GlobalMessageName = rec.Kind
		localLatest[local] = idx
		for name := range rec.Fields {
			fieldSets[local][name] = struct{}{}
		}
	}

	locals := make([]int, 0, len(localLatest))
	for k := range localLatest {
		locals = append(locals, k)
	}
	sort.Ints(locals)
	localList := make([]LocalMessageIndex, 0, len(locals))
	for _, k := range locals {
		idx := localLatest[k]
		names := make([]string, 0, len(fieldSets[k]))
		for name := range fieldSets[k] {
			names = append(names, name)
		}
		sort.Strings(names)
		idx.FieldNames = names
		localList = append(localList, idx)
	}

	reverse := make(map[string][]int, len(reverseSets))
	for gKey, set := range reverseSets {
		list := make([]int, 0, len(set))
		for l := range set {
			list = append(list, l)
		}
		sort.Ints(list)
		reverse[gKey] = list
	}
	return MessageIndexFile{
		LocalMessageTypes: localList,
		ReverseIndex:      reverse,
	}
}

// resolveFTP prefers the session's threshold power over the CLI override.
func resolveFTP(records []fitproto.Record, override float64) float64 {
	for _, rec := range records {
		if rec.Kind != "session" {
			continue
		}
		if v := floatField(rec.Fields, "threshold_power"); v != nil && *v > 0 && *v <= 600 {
			return *v
		}
	}
	if override > 0 && override <= 600 {
		return override
	}
	return 0
}

func buildActivitySummary(samples []CanonicalSample, ftp float64) ActivitySummaryFile {
	power := make([]float64, 0, len(samples))
	hr := make([]float64, 0, len(samples))
	cad := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.PowerW != nil && s.ValidPower {
			power = append(power, *s.PowerW)
		}
		if s.HRBPM != nil && s.ValidHR {
			hr = append(hr, *s.HRBPM)
		}
		if s.CadenceRPM != nil && s.ValidCadence {
			cad = append(cad, *s.CadenceRPM)
		}
	}

	duration := 0.0
	if len(samples) > 1 {
		duration = samples[len(samples)-1].ElapsedS - samples[0].ElapsedS
	}
	if duration <= 0 {
		duration = float64(len(samples))
	}
	np := normalizedPowerFromFloats(power)

	summary := ActivitySummaryFile{
		DurationS:     duration,
		AvgPowerW:     avgFloat(power),
		NPW:           np,
		MaxPowerW:     maxFloat(power),
		AvgHRBPM:      avgFloat(hr),
		MaxHRBPM:      maxFloat(hr),
		AvgCadenceRPM: avgFloat(cad),
		MaxCadenceRPM: maxFloat(cad),
		TotalWorkKJ:   totalWorkKJ(samples),
	}
	if ftp <= 0 {
		summary.Warnings = append(summary.Warnings, "ftp_w_used unavailable: IF and tss_like omitted")
		return summary
	}

	summary.FTPWUsed = floatPtr(ftp)
	ifv := np / ftp
	summary.IF = floatPtr(ifv)
	tss := (duration / 3600.0) * ifv * ifv * 100.0
	summary.TSSLike = floatPtr(tss)
	return summary
}

func totalWorkKJ(samples []CanonicalSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	work := 0.0
	for i := 1; i < len(samples); i++ {
		prev := samples[i-1]
		if prev.PowerW == nil || !prev.ValidPower {
			continue
		}
		delta := samples[i].Timestamp.Sub(prev.Timestamp).Seconds()
		if delta <= 0 || delta > 5 {
			delta = 1
		}
		work += (*prev.PowerW) * delta
	}
	if work == 0 {
		for _, s := range samples {
			if s.PowerW != nil && s.ValidPower {
				work += *s.PowerW
			}
		}
	}
	return work / 1000.0
}

func normalizedPowerFromFloats(power []float64) float64 {
	if len(power) == 0 {
		return 0
	}
	if len(power) < 30 {
		return avgFloat(power)
	}
	window := 30
	sum := 0.0
	for i := 0; i < window; i++ {
		sum += power[i]
	}
	totalFourth := 0.0
	count := 0
	for i := window - 1; i < len(power); i++ {
		if i >= window {
			sum += power[i] - power[i-window]
		}
		roll := sum / float64(window)
		totalFourth += math.Pow(roll, 4)
		count++
	}
	if count == 0 {
		return avgFloat(power)
	}
	return math.Pow(totalFourth/float64(count), 0.25)
}

func avgFloat(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maxFloat(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for i := 1; i < len(values); i++ {
		if values[i] > m {
			m = values[i]
		}
	}
	return m
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCanonicalCSV(path string, samples []CanonicalSample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"ts_utc_iso", "elapsed_s", "power_w", "hr_bpm", "cadence_rpm", "speed_mps", "distance_m", "altitude_m", "temperature_c", "grade_pct",
		"valid_power", "valid_hr", "valid_cadence", "file_offset", "record_index",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			s.TSUTCISO,
			formatFloat(s.ElapsedS),
			formatFloatPtr(s.PowerW),
			formatFloatPtr(s.HRBPM),
			formatFloatPtr(s.CadenceRPM),
			formatFloatPtr(s.SpeedMPS),
			formatFloatPtr(s.DistanceM),
			formatFloatPtr(s.AltitudeM),
			formatFloatPtr(s.TemperatureC),
			formatFloatPtr(s.GradePct),
			strconv.FormatBool(s.ValidPower),
			strconv.FormatBool(s.ValidHR),
			strconv.FormatBool(s.ValidCadence),
			strconv.FormatInt(s.FileOffset, 10),
			strconv.Itoa(s.RecordIndex),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func floatField(fields map[string]any, name string) *float64 {
	return floatAny(fields[name])
}

func firstFloatField(fields map[string]any, names ...string) *float64 {
	for _, name := range names {
		if v := floatAny(fields[name]); v != nil {
			return v
		}
	}
	return nil
}

func floatAny(v any) *float64 {
	switch x := v.(type) {
	case float64:
		out := x
		return &out
	case float32:
		out := float64(x)
		return &out
	case int8:
		out := float64(x)
		return &out
	case int16:
		out := float64(x)
		return &out
	case int32:
		out := float64(x)
		return &out
	case int64:
		out := float64(x)
		return &out
	case uint8:
		out := float64(x)
		return &out
	case uint16:
		out := float64(x)
		return &out
	case uint32:
		out := float64(x)
		return &out
	case uint64:
		out := float64(x)
		return &out
	default:
		return nil
	}
}

func floatPtr(v float64) *float64 {
	out := v
	return &out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
