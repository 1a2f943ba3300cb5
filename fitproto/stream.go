package fitproto

import (
	"encoding/binary"
	"fmt"

	"fit-decoder/profile"
)

const fitMagic = ".FIT"

// FileHeader is the 12- or 14-byte preamble of a FIT file.
type FileHeader struct {
	Size            uint8
	ProtocolVersion uint8
	ProfileVersion  uint16
	DataSize        uint32
	DataType        string
	CRC             uint16
}

// ParseFileHeader reads and validates the file preamble.
func ParseFileHeader(data []byte) (FileHeader, error) {
	if len(data) < 12 {
		return FileHeader{}, fmt.Errorf("fit: file shorter than minimum header (%d bytes)", len(data))
	}
	size := data[0]
	if size != 12 && size != 14 {
		return FileHeader{}, fmt.Errorf("fit: unsupported header size %d", size)
	}
	if int(size) > len(data) {
		return FileHeader{}, fmt.Errorf("fit: truncated %d-byte header", size)
	}
	h := FileHeader{
		Size:            size,
		ProtocolVersion: data[1],
		ProfileVersion:  binary.LittleEndian.Uint16(data[2:4]),
		DataSize:        binary.LittleEndian.Uint32(data[4:8]),
		DataType:        string(data[8:12]),
	}
	if h.DataType != fitMagic {
		return FileHeader{}, fmt.Errorf("fit: bad magic %q", h.DataType)
	}
	if size == 14 {
		h.CRC = binary.LittleEndian.Uint16(data[12:14])
	}
	return h, nil
}

// CRCStatus reports the integrity checks of one file. A 12-byte header, or a
// 14-byte header carrying a zero CRC, leaves HeaderChecked false.
type CRCStatus struct {
	HeaderChecked bool
	HeaderOK      bool
	Stored        uint16
	Computed      uint16
	OK            bool
}

// FileResult is the outcome of decoding one FIT file. Leftover counts bytes
// past the file CRC (chained files), which are not decoded. Truncated is set
// when the buffer ends before the declared data section plus its CRC.
type FileResult struct {
	Header    FileHeader
	CRC       CRCStatus
	Records   []Record
	Leftover  int
	Truncated bool
}

// DecodeBytes decodes a whole FIT file held in memory. On a strict-mode
// decode failure it returns the records decoded so far alongside the error.
func DecodeBytes(data []byte, prof *profile.Profile, opts Options) (*FileResult, error) {
	h, err := ParseFileHeader(data)
	if err != nil {
		return nil, err
	}
	res := &FileResult{Header: h}

	if h.Size == 14 && h.CRC != 0 {
		res.CRC.HeaderChecked = true
		res.CRC.HeaderOK = Checksum(data[:12]) == h.CRC
	}

	dataEnd := int(h.Size) + int(h.DataSize)
	if dataEnd+2 > len(data) {
		res.Truncated = true
		if dataEnd > len(data) {
			dataEnd = len(data)
		}
	} else {
		res.CRC.Stored = binary.LittleEndian.Uint16(data[dataEnd : dataEnd+2])
		res.CRC.Computed = Checksum(data[:dataEnd])
		res.CRC.OK = res.CRC.Stored == res.CRC.Computed
		res.Leftover = len(data) - (dataEnd + 2)
	}

	dec := NewDecoder(prof, opts)
	pos := int(h.Size)
	for pos < dataEnd {
		rec, next, err := dec.DecodeRecord(data[:dataEnd], pos)
		if err != nil {
			return res, err
		}
		if next <= pos {
			return res, &DecodeError{Offset: pos, Kind: "data", Err: fmt.Errorf("record did not advance the cursor")}
		}
		res.Records = append(res.Records, rec)
		pos = next
	}
	return res, nil
}
