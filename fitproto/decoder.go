// Package fitproto decodes FIT record streams: file headers and CRCs,
// definition and data records, developer fields, and compressed-timestamp
// reconstruction. Decoded field mappings hold JSON-ready values; instants
// (date_time fields and reconstructed timestamps) appear as RFC 3339 strings
// rather than time.Time so a mapping serializes losslessly, and consumers
// parse them back at their own boundary.
package fitproto

import (
	"fmt"
	"time"

	"fit-decoder/profile"
)

// Record header layout.
const (
	headerCompressed     = 0x80
	headerDefinition     = 0x40
	headerDeveloperData  = 0x20
	headerLocalMask      = 0x0F
	compressedSlotShift  = 5
	compressedSlotMask   = 0x03
	compressedOffsetMask = 0x1F
)

// Options control one decode session.
type Options struct {
	// Force degrades per-field failures instead of aborting the session.
	Force bool

	// Unit selections per measurement category. Empty means no conversion.
	SpeedUnit       string
	LengthUnit      string
	TemperatureUnit string

	// ElapsedRecordFields derives elapsed_time and timer_time on every
	// record message carrying a timestamp, relative to SessionStart with
	// PausedSeconds subtracted from timer_time.
	ElapsedRecordFields bool
	SessionStart        time.Time
	PausedSeconds       float64
}

// DecodeError reports where in the stream a strict-mode decode failed.
type DecodeError struct {
	Offset int
	Kind   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("fit: %s record at offset %d: %v", e.Kind, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FieldDef is one declared field within a message definition, with its
// semantic attributes resolved at definition time.
type FieldDef struct {
	Num           uint8
	Size          uint8
	BaseType      BaseType
	EndianCapable bool
	LittleEndian  bool
	Developer     bool
	Attr          profile.FieldAttr

	kind valueKind
}

// MessageDef is the field layout bound to one local message slot.
type MessageDef struct {
	GlobalNum    uint16
	Name         string
	LittleEndian bool
	Fields       []FieldDef
}

// DeveloperFieldDesc is the runtime field declaration carried by a
// field_description message, keyed [developer_data_index][field_definition_number].
type DeveloperFieldDesc struct {
	DevDataIndex   uint8
	FieldNum       uint8
	BaseTypeID     uint8
	Name           string
	Units          string
	Scale          float64
	Offset         float64
	NativeMesgNum  uint16
	NativeFieldNum uint8
}

// Record is one decoded FIT record. Kind is "definition" for definition
// records and the resolved message name (or "global_<n>") for data records.
type Record struct {
	Kind      string
	Offset    int
	Header    byte
	Local     uint8
	GlobalNum uint16
	Fields    map[string]any
}

// Decoder holds the running state of one decode session. All of it, the
// slot table, the developer field table and the timestamp accumulators,
// is scoped to the file being decoded; use a fresh Decoder per file.
type Decoder struct {
	prof *profile.Profile
	opts Options

	defs      map[uint8]*MessageDef
	devFields map[uint8]map[uint8]DeveloperFieldDesc

	timestamp      uint32
	lastTimeOffset uint32
	hasTimestamp   bool

	monitoringTimestamp uint32
}

// NewDecoder builds a decoder over prof. A nil profile uses the built-ins.
func NewDecoder(prof *profile.Profile, opts Options) *Decoder {
	if prof == nil {
		prof = profile.Default()
	}
	return &Decoder{
		prof:      prof,
		opts:      opts,
		defs:      make(map[uint8]*MessageDef),
		devFields: make(map[uint8]map[uint8]DeveloperFieldDesc),
	}
}

// DecodeRecord interprets the record starting at pos and returns the decoded
// record plus the offset of the next one.
func (d *Decoder) DecodeRecord(data []byte, pos int) (Record, int, error) {
	if pos >= len(data) {
		return Record{}, pos, &DecodeError{Offset: pos, Kind: "header", Err: fmt.Errorf("cursor past end of buffer")}
	}
	hdr := data[pos]

	if hdr&headerCompressed != 0 {
		local := (hdr >> compressedSlotShift) & compressedSlotMask
		offset := uint32(hdr & compressedOffsetMask)
		if d.hasTimestamp {
			d.timestamp += (offset - d.lastTimeOffset) & compressedOffsetMask
			d.lastTimeOffset = offset
		}
		return d.decodeData(data, pos, hdr, local, true)
	}

	local := hdr & headerLocalMask
	if hdr&headerDefinition != 0 {
		return d.decodeDefinition(data, pos, hdr, local)
	}
	return d.decodeData(data, pos, hdr, local, false)
}

func (d *Decoder) decodeDefinition(data []byte, pos int, hdr byte, local uint8) (Record, int, error) {
	cur := pos + 1
	if cur+5 > len(data) {
		return Record{}, pos, &DecodeError{Offset: pos, Kind: "definition", Err: fmt.Errorf("truncated definition header")}
	}
	// reserved byte at cur, architecture byte at cur+1
	littleEndian := data[cur+1] == 0x00
	var global uint16
	if littleEndian {
		global = uint16(data[cur+2]) | uint16(data[cur+3])<<8
	} else {
		global = uint16(data[cur+2])<<8 | uint16(data[cur+3])
	}
	numFields := int(data[cur+4])
	cur += 5

	if cur+numFields*3 > len(data) {
		return Record{}, pos, &DecodeError{Offset: pos, Kind: "definition", Err: fmt.Errorf("truncated field definitions")}
	}

	msg, known := d.prof.Message(global)
	name := msg.Name
	if !known {
		name = fmt.Sprintf("global_%d", global)
	}
	def := &MessageDef{GlobalNum: global, Name: name, LittleEndian: littleEndian}

	for i := 0; i < numFields; i++ {
		num := data[cur]
		size := data[cur+1]
		bt, endianCapable := ParseBaseTypeByte(data[cur+2])
		cur += 3

		// A field the dictionary cannot name still occupies its declared
		// bytes; decodeData reads past it without storing a value.
		attr := msg.Fields[num]
		if attr.Type == "" {
			attr.Type = bt.Name()
		}
		def.Fields = append(def.Fields, FieldDef{
			Num:           num,
			Size:          size,
			BaseType:      bt,
			EndianCapable: endianCapable,
			LittleEndian:  littleEndian,
			Attr:          attr,
			kind:          valueKindFor(attr.Type),
		})
	}

	if hdr&headerDeveloperData != 0 {
		if cur >= len(data) {
			return Record{}, pos, &DecodeError{Offset: pos, Kind: "definition", Err: fmt.Errorf("truncated developer field count")}
		}
		numDev := int(data[cur])
		cur++
		if cur+numDev*3 > len(data) {
			return Record{}, pos, &DecodeError{Offset: pos, Kind: "definition", Err: fmt.Errorf("truncated developer field definitions")}
		}
		for i := 0; i < numDev; i++ {
			num := data[cur]
			size := data[cur+1]
			devIndex := data[cur+2]
			cur += 3

			desc, ok := d.devFields[devIndex][num]
			if !ok {
				if !d.opts.Force {
					return Record{}, pos, &DecodeError{
						Offset: pos,
						Kind:   "definition",
						Err:    fmt.Errorf("no field_description for developer field %d/%d", devIndex, num),
					}
				}
				continue
			}
			bt, endianCapable := ParseBaseTypeByte(desc.BaseTypeID)
			typeName := bt.Name()
			def.Fields = append(def.Fields, FieldDef{
				Num:           num,
				Size:          size,
				BaseType:      bt,
				EndianCapable: endianCapable,
				LittleEndian:  littleEndian,
				Developer:     true,
				Attr: profile.FieldAttr{
					Name:   desc.Name,
					Type:   typeName,
					Scale:  desc.Scale,
					Offset: desc.Offset,
					Units:  desc.Units,
				},
				kind: valueKindFor(typeName),
			})
		}
	}

	d.defs[local] = def
	return Record{
		Kind:      "definition",
		Offset:    pos,
		Header:    hdr,
		Local:     local,
		GlobalNum: global,
	}, cur, nil
}

func (d *Decoder) decodeData(data []byte, pos int, hdr byte, local uint8, compressed bool) (Record, int, error) {
	def, ok := d.defs[local]
	if !ok {
		// Some writers emit data records against slots they never defined;
		// slot 0 is the conventional fallback.
		def, ok = d.defs[0]
		if !ok {
			return Record{}, pos, &DecodeError{Offset: pos, Kind: "data", Err: fmt.Errorf("no definition for local message %d", local)}
		}
	}

	fields := make(map[string]any)
	cur := pos + 1

	var tsRaw uint32
	var hasTS bool
	var ts16Raw uint16
	var hasTS16 bool

	for _, fd := range def.Fields {
		raw, err := readFieldValue(data, fd, cur, d.opts.Force)
		cur += int(fd.Size)
		if err != nil {
			if d.opts.Force {
				continue
			}
			return Record{}, pos, &DecodeError{Offset: pos, Kind: def.Name, Err: err}
		}
		if fd.BaseType.Sentinel(raw) {
			continue
		}
		if fd.Attr.Name == "" {
			continue
		}

		switch fd.Attr.Name {
		case "timestamp":
			if u, uok := rawUint(raw); uok {
				tsRaw = uint32(u)
				hasTS = true
				d.timestamp = tsRaw
				d.lastTimeOffset = uint32(tsRaw) & compressedOffsetMask
				d.hasTimestamp = true
			}
		case "timestamp16":
			if u, uok := rawUint(raw); uok {
				ts16Raw = uint16(u)
				hasTS16 = true
			}
		}

		v := formatValue(raw, fd, d.prof)
		fields[fd.Attr.Name] = convertUnits(fd.Attr.Name, v, d.prof, d.opts)
	}

	if compressed && d.hasTimestamp {
		if _, present := fields["timestamp"]; !present {
			fields["timestamp"] = EpochTime(d.timestamp).Format(time.RFC3339)
		}
	}

	switch def.Name {
	case "record":
		if d.opts.ElapsedRecordFields && hasTS {
			elapsed := EpochTime(tsRaw).Sub(d.opts.SessionStart).Seconds()
			fields["elapsed_time"] = elapsed
			fields["timer_time"] = elapsed - d.opts.PausedSeconds
		}
	case "field_description":
		d.registerFieldDescription(fields)
	case "monitoring":
		if hasTS {
			d.monitoringTimestamp = tsRaw
		} else if hasTS16 {
			d.monitoringTimestamp += (uint32(ts16Raw) - (d.monitoringTimestamp & 0xFFFF)) & 0xFFFF
			fields["timestamp"] = EpochTime(d.monitoringTimestamp).Format(time.RFC3339)
		}
	}

	return Record{
		Kind:      def.Name,
		Offset:    pos,
		Header:    hdr,
		Local:     local,
		GlobalNum: def.GlobalNum,
		Fields:    fields,
	}, cur, nil
}

// registerFieldDescription installs or overwrites a developer field
// descriptor from a decoded field_description mapping. Both keys must be
// present for the entry to register.
func (d *Decoder) registerFieldDescription(fields map[string]any) {
	fieldNum, okNum := fieldUint(fields, "field_definition_number")
	devIndex, okIdx := fieldUint(fields, "developer_data_index")
	if !okNum || !okIdx {
		return
	}

	desc := DeveloperFieldDesc{
		DevDataIndex: uint8(devIndex),
		FieldNum:     uint8(fieldNum),
		Scale:        1,
	}
	if v, ok := fieldUint(fields, "fit_base_type_id"); ok {
		desc.BaseTypeID = uint8(v)
	}
	if s, ok := fields["field_name"].(string); ok {
		desc.Name = s
	}
	if desc.Name == "" {
		desc.Name = fmt.Sprintf("dev_%d_%d", devIndex, fieldNum)
	}
	if s, ok := fields["units"].(string); ok {
		desc.Units = s
	}
	if f, ok := fieldFloat(fields, "scale"); ok && f != 0 {
		desc.Scale = f
	}
	if f, ok := fieldFloat(fields, "offset"); ok {
		desc.Offset = f
	}
	if v, ok := fieldUint(fields, "native_mesg_num"); ok {
		desc.NativeMesgNum = uint16(v)
	}
	if v, ok := fieldUint(fields, "native_field_num"); ok {
		desc.NativeFieldNum = uint8(v)
	}

	if d.devFields[desc.DevDataIndex] == nil {
		d.devFields[desc.DevDataIndex] = make(map[uint8]DeveloperFieldDesc)
	}
	d.devFields[desc.DevDataIndex][desc.FieldNum] = desc
}

func fieldUint(fields map[string]any, name string) (uint64, bool) {
	v, ok := fields[name]
	if !ok {
		return 0, false
	}
	return rawUint(v)
}

func fieldFloat(fields map[string]any, name string) (float64, bool) {
	v, ok := fields[name]
	if !ok {
		return 0, false
	}
	return rawFloat(v)
}
