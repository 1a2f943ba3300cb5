package export

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fit-decoder/fitproto"
	"fit-decoder/profile"
)

// Export decodes a FIT file and writes the bundle into outputDir:
//   - manifest.json
//   - records.jsonl
//   - source.fit (optional)
func Export(inputPath, outputDir string, prof *profile.Profile, decodeOpts fitproto.Options, opts Options) (*Result, error) {
	if strings.TrimSpace(inputPath) == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if strings.TrimSpace(outputDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("read fit file: %w", err)
	}
	sum := sha256.Sum256(data)
	sha := hex.EncodeToString(sum[:])

	res, err := fitproto.DecodeBytes(data, prof, decodeOpts)
	if err != nil {
		return nil, fmt.Errorf("decode fit file: %w", err)
	}

	if err := ensureOutputDir(outputDir, opts.Overwrite); err != nil {
		return nil, err
	}

	envelopes := buildEnvelopes(res.Records)
	recordsPath := filepath.Join(outputDir, "records.jsonl")
	if err := writeJSONL(recordsPath, envelopes); err != nil {
		return nil, fmt.Errorf("write records.jsonl: %w", err)
	}

	defCount := 0
	for _, r := range res.Records {
		if r.Kind == "definition" {
			defCount++
		}
	}
	dataCount := len(res.Records) - defCount

	manifest := Manifest{
		FormatVersion:    FormatVersion,
		GeneratedAt:      time.Now().UTC(),
		SourceFile:       inputPath,
		SourceFileName:   filepath.Base(inputPath),
		SourceSHA256:     sha,
		SourceSizeBytes:  int64(len(data)),
		Header:           headerInfo(res.Header),
		HeaderCRC:        headerCRCCheck(res),
		FileCRC:          fileCRCCheck(res),
		RecordsPath:      filepath.Base(recordsPath),
		RecordCount:      len(res.Records),
		DefinitionCount:  defCount,
		DataMessageCount: dataCount,
		LeftoverBytes:    res.Leftover,
		Truncated:        res.Truncated,
		FileID:           projectFileID(res.Records),
	}

	manifestPath := filepath.Join(outputDir, "manifest.json")
	if err := writeJSON(manifestPath, manifest); err != nil {
		return nil, fmt.Errorf("write manifest.json: %w", err)
	}

	sourceCopyPath := ""
	if opts.CopySourceFile {
		sourceCopyPath = filepath.Join(outputDir, "source.fit")
		if err := copyFile(inputPath, sourceCopyPath); err != nil {
			return nil, fmt.Errorf("copy source fit file: %w", err)
		}
	}

	return &Result{
		OutputDir:        outputDir,
		ManifestPath:     manifestPath,
		RecordsPath:      recordsPath,
		SourceCopyPath:   sourceCopyPath,
		RecordCount:      len(res.Records),
		DefinitionCount:  defCount,
		DataMessageCount: dataCount,
		SourceSHA256:     sha,
		SourceSizeBytes:  int64(len(data)),
		FileCRCValid:     res.CRC.OK,
		HeaderCRCValid:   !res.CRC.HeaderChecked || res.CRC.HeaderOK,
		LeftoverBytes:    res.Leftover,
	}, nil
}

func buildEnvelopes(records []fitproto.Record) []RecordEnvelope {
	out := make([]RecordEnvelope, 0, len(records))
	for i, r := range records {
		out = append(out, RecordEnvelope{
			RecordIndex:      i,
			FileOffset:       r.Offset,
			HeaderByte:       r.Header,
			RecordKind:       r.Kind,
			LocalMessageType: r.Local,
			GlobalMessageNum: r.GlobalNum,
			Fields:           r.Fields,
		})
	}
	return out
}

func headerInfo(h fitproto.FileHeader) HeaderInfo {
	return HeaderInfo{
		Size:            h.Size,
		ProtocolVersion: h.ProtocolVersion,
		ProfileVersion:  h.ProfileVersion,
		DataSize:        h.DataSize,
		DataType:        h.DataType,
	}
}

func headerCRCCheck(res *fitproto.FileResult) CRCCheck {
	if !res.CRC.HeaderChecked {
		return CRCCheck{Present: false, Valid: true}
	}
	return CRCCheck{
		Present:   true,
		StoredHex: fmt.Sprintf("0x%04X", res.Header.CRC),
		Valid:     res.CRC.HeaderOK,
	}
}

func fileCRCCheck(res *fitproto.FileResult) CRCCheck {
	if res.Truncated {
		return CRCCheck{Present: false}
	}
	return CRCCheck{
		Present:     true,
		StoredHex:   fmt.Sprintf("0x%04X", res.CRC.Stored),
		ComputedHex: fmt.Sprintf("0x%04X", res.CRC.Computed),
		Valid:       res.CRC.OK,
	}
}

func projectFileID(records []fitproto.Record) *FileIDInfo {
	for _, r := range records {
		if r.Kind != "file_id" {
			continue
		}
		info := &FileIDInfo{}
		if s, ok := r.Fields["type"].(string); ok {
			info.Type = s
		}
		if s, ok := r.Fields["manufacturer"].(string); ok {
			info.Manufacturer = s
		}
		if v, ok := r.Fields["product"]; ok {
			info.Product = fmt.Sprint(v)
		}
		if s, ok := r.Fields["time_created"].(string); ok {
			info.TimeCreated = s
		}
		return info
	}
	return nil
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set overwrite=true to allow)", path)
	}
	return nil
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

func writeJSONL(path string, records []RecordEnvelope) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := bufio.NewWriterSize(f, 1<<20)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return err
		}
	}
	return buf.Flush()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
