// Package export writes a lossless bundle for one decoded FIT file:
// manifest.json with header and integrity metadata plus records.jsonl with
// one envelope per record, preserving original record order.
package export

import "time"

// FormatVersion identifies the on-disk schema of the bundle.
const FormatVersion = "fit_decoded_jsonl_v1"

// Options controls export behavior.
type Options struct {
	// Overwrite allows writing into a non-empty output directory.
	Overwrite bool

	// CopySourceFile writes a byte-for-byte copy of the source FIT file to
	// the output directory.
	CopySourceFile bool
}

// Result describes generated files.
type Result struct {
	OutputDir        string `json:"output_dir"`
	ManifestPath     string `json:"manifest_path"`
	RecordsPath      string `json:"records_path"`
	SourceCopyPath   string `json:"source_copy_path,omitempty"`
	RecordCount      int    `json:"record_count"`
	DefinitionCount  int    `json:"definition_count"`
	DataMessageCount int    `json:"data_message_count"`
	SourceSHA256     string `json:"source_sha256"`
	SourceSizeBytes  int64  `json:"source_size_bytes"`
	FileCRCValid     bool   `json:"file_crc_valid"`
	HeaderCRCValid   bool   `json:"header_crc_valid"`
	LeftoverBytes    int    `json:"leftover_bytes"`
}

// Manifest captures export metadata and pointers to exported files.
type Manifest struct {
	FormatVersion    string      `json:"format_version"`
	GeneratedAt      time.Time   `json:"generated_at"`
	SourceFile       string      `json:"source_file"`
	SourceFileName   string      `json:"source_file_name"`
	SourceSHA256     string      `json:"source_sha256"`
	SourceSizeBytes  int64       `json:"source_size_bytes"`
	Header           HeaderInfo  `json:"header"`
	HeaderCRC        CRCCheck    `json:"header_crc"`
	FileCRC          CRCCheck    `json:"file_crc"`
	RecordsPath      string      `json:"records_path"`
	RecordCount      int         `json:"record_count"`
	DefinitionCount  int         `json:"definition_count"`
	DataMessageCount int         `json:"data_message_count"`
	LeftoverBytes    int         `json:"leftover_bytes"`
	Truncated        bool        `json:"truncated"`
	FileID           *FileIDInfo `json:"file_id_projection,omitempty"`
}

// HeaderInfo stores parsed FIT header values.
type HeaderInfo struct {
	Size            uint8  `json:"size"`
	ProtocolVersion uint8  `json:"protocol_version"`
	ProfileVersion  uint16 `json:"profile_version"`
	DataSize        uint32 `json:"data_size"`
	DataType        string `json:"data_type"`
}

// CRCCheck describes CRC validation results.
type CRCCheck struct {
	Present     bool   `json:"present"`
	StoredHex   string `json:"stored_hex,omitempty"`
	ComputedHex string `json:"computed_hex,omitempty"`
	Valid       bool   `json:"valid"`
}

// FileIDInfo is a convenience projection from the file_id message.
type FileIDInfo struct {
	Type         string `json:"type,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Product      string `json:"product,omitempty"`
	TimeCreated  string `json:"time_created,omitempty"`
}

// RecordEnvelope is one JSONL line in records.jsonl. The stream preserves
// original FIT record order.
type RecordEnvelope struct {
	RecordIndex      int            `json:"record_index"`
	FileOffset       int            `json:"file_offset"`
	HeaderByte       uint8          `json:"header_byte"`
	RecordKind       string         `json:"record_kind"`
	LocalMessageType uint8          `json:"local_message_type"`
	GlobalMessageNum uint16         `json:"global_message_num"`
	Fields           map[string]any `json:"fields,omitempty"`
}
