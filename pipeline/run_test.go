package pipeline

import (
	"bytes"
	"encoding/binary"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"fit-decoder/fitproto"
)

// buildTestFIT assembles an activity file with a file_id message, five record
// samples and a session carrying a threshold power.
func buildTestFIT(t *testing.T) []byte {
	t.Helper()

	var body []byte
	// file_id definition and data: activity file.
	body = append(body, 0x40, 0x00, 0x00, 0, 0, 1, 0, 1, 0x00)
	body = append(body, 0x00, 4)

	// record definition: timestamp, heart_rate, power.
	body = append(body, 0x41, 0x00, 0x00, 20, 0, 3, 253, 4, 0x86, 3, 1, 0x02, 7, 2, 0x84)
	for i := 0; i < 5; i++ {
		ts := make([]byte, 4)
		binary.LittleEndian.PutUint32(ts, uint32(1000+i))
		body = append(body, 0x01)
		body = append(body, ts...)
		body = append(body, byte(140+i))
		power := make([]byte, 2)
		binary.LittleEndian.PutUint16(power, uint16(200))
		body = append(body, power...)
	}

	// session definition and data: threshold_power 250 W.
	body = append(body, 0x42, 0x00, 0x00, 18, 0, 1, 57, 2, 0x84)
	body = append(body, 0x02, 0xFA, 0x00)

	header := make([]byte, 14)
	header[0] = 14
	header[1] = 0x20
	binary.LittleEndian.PutUint16(header[2:4], 2120)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(body)))
	copy(header[8:12], ".FIT")
	binary.LittleEndian.PutUint16(header[12:14], fitproto.Checksum(header[:12]))

	file := append(header, body...)
	crc := make([]byte, 2)
	binary.LittleEndian.PutUint16(crc, fitproto.Checksum(file))
	return append(file, crc...)
}

func writeTestFIT(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "ride.fit")
	if err := os.WriteFile(path, buildTestFIT(t), 0o644); err != nil {
		t.Fatalf("write test fit: %v", err)
	}
	return path
}

func TestRunWritesArtifactsCSV(t *testing.T) {
	dir := t.TempDir()
	input := writeTestFIT(t, dir)
	outDir := filepath.Join(dir, "out")

	res, err := Run(Options{
		FitPath: input,
		OutDir:  outDir,
		Format:  "csv",
		Force:   true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, path := range []string{res.ManifestPath, res.RecordsPath, res.CanonicalSamplesPath, res.MessagesIndexPath, res.ActivitySummaryPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing artifact %s: %v", path, err)
		}
	}
	if res.SourceCopyPath != "" {
		t.Errorf("source copy written without CopySource: %s", res.SourceCopyPath)
	}

	f, err := os.Open(res.CanonicalSamplesPath)
	if err != nil {
		t.Fatalf("open canonical csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read canonical csv: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("csv rows = %d, want header plus 5 samples", len(rows))
	}
	if rows[0][0] != "ts_utc_iso" {
		t.Fatalf("csv header = %v", rows[0])
	}

	summaryBytes, err := os.ReadFile(res.ActivitySummaryPath)
	if err != nil {
		t.Fatalf("read activity summary: %v", err)
	}
	var summary ActivitySummaryFile
	if err := json.Unmarshal(summaryBytes, &summary); err != nil {
		t.Fatalf("unmarshal activity summary: %v", err)
	}
	if summary.AvgPowerW != 200 || summary.MaxPowerW != 200 {
		t.Errorf("power = %v/%v, want 200/200", summary.AvgPowerW, summary.MaxPowerW)
	}
	if summary.DurationS != 4 {
		t.Errorf("duration = %v, want 4", summary.DurationS)
	}
	if summary.FTPWUsed == nil || *summary.FTPWUsed != 250 {
		t.Fatalf("ftp used = %v, want session threshold power 250", summary.FTPWUsed)
	}
	if summary.IF == nil || summary.TSSLike == nil {
		t.Fatalf("IF/TSS missing with a resolved FTP: %+v", summary)
	}
	if len(summary.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", summary.Warnings)
	}

	indexBytes, err := os.ReadFile(res.MessagesIndexPath)
	if err != nil {
		t.Fatalf("read messages index: %v", err)
	}
	var index MessageIndexFile
	if err := json.Unmarshal(indexBytes, &index); err != nil {
		t.Fatalf("unmarshal messages index: %v", err)
	}
	if len(index.LocalMessageTypes) != 3 {
		t.Fatalf("local message types = %+v", index.LocalMessageTypes)
	}
	rec := index.LocalMessageTypes[1]
	if rec.LocalMessageType != 1 || rec.GlobalMessageNum != 20 || rec.GlobalMessageName != "record" {
		t.Fatalf("record index entry = %+v", rec)
	}
	want := map[string]bool{"timestamp": false, "heart_rate": false, "power": false}
	for _, name := range rec.FieldNames {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("field %q missing from index: %v", name, rec.FieldNames)
		}
	}
	if locals := index.ReverseIndex["20"]; len(locals) != 1 || locals[0] != 1 {
		t.Errorf("reverse index for 20 = %v", locals)
	}
}

func TestRunWritesParquet(t *testing.T) {
	dir := t.TempDir()
	input := writeTestFIT(t, dir)
	outDir := filepath.Join(dir, "out")

	res, err := Run(Options{
		FitPath:    input,
		OutDir:     outDir,
		FTPWatts:   260,
		Overwrite:  true,
		CopySource: true,
		Force:      true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(res.CanonicalSamplesPath)
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PAR1")) {
		t.Fatal("canonical samples file is not a parquet file")
	}
	if res.SourceCopyPath == "" {
		t.Fatal("source copy path not reported")
	}
	if _, err := os.Stat(res.SourceCopyPath); err != nil {
		t.Fatalf("source copy missing: %v", err)
	}

	// The session's threshold power beats the override.
	summaryBytes, _ := os.ReadFile(res.ActivitySummaryPath)
	var summary ActivitySummaryFile
	if err := json.Unmarshal(summaryBytes, &summary); err != nil {
		t.Fatalf("unmarshal activity summary: %v", err)
	}
	if summary.FTPWUsed == nil || *summary.FTPWUsed != 250 {
		t.Fatalf("ftp used = %v, want 250 from session", summary.FTPWUsed)
	}
}

func TestMarshalCanonicalParquet(t *testing.T) {
	samples := buildCanonicalSamples(mustDecode(t))
	if len(samples) != 5 {
		t.Fatalf("sample count = %d, want 5", len(samples))
	}

	data, err := marshalCanonicalParquet(samples)
	if err != nil {
		t.Fatalf("marshalCanonicalParquet: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PAR1")) {
		t.Fatal("in-memory parquet missing magic bytes")
	}
}

func mustDecode(t *testing.T) []fitproto.Record {
	t.Helper()
	res, err := fitproto.DecodeBytes(buildTestFIT(t), nil, fitproto.Options{Force: true})
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	return res.Records
}

func TestRunValidation(t *testing.T) {
	dir := t.TempDir()
	if _, err := Run(Options{OutDir: dir}); err == nil {
		t.Error("missing fit path accepted")
	}
	if _, err := Run(Options{FitPath: "ride.fit"}); err == nil {
		t.Error("missing out dir accepted")
	}
	if _, err := Run(Options{FitPath: "ride.fit", OutDir: dir, Format: "xml"}); err == nil {
		t.Error("unsupported format accepted")
	}
}
