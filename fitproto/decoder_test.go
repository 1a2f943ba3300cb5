package fitproto

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// Record-level byte builders. All definitions are little-endian (arch 0x00)
// unless a test assembles its own bytes.

func defRecord(local byte, global uint16, fields ...[3]byte) []byte {
	out := []byte{0x40 | local, 0x00, 0x00, byte(global), byte(global >> 8), byte(len(fields))}
	for _, f := range fields {
		out = append(out, f[0], f[1], f[2])
	}
	return out
}

func defRecordDev(local byte, global uint16, fields [][3]byte, dev [][3]byte) []byte {
	out := []byte{0x60 | local, 0x00, 0x00, byte(global), byte(global >> 8), byte(len(fields))}
	for _, f := range fields {
		out = append(out, f[0], f[1], f[2])
	}
	out = append(out, byte(len(dev)))
	for _, f := range dev {
		out = append(out, f[0], f[1], f[2])
	}
	return out
}

func dataRecord(local byte, payload ...byte) []byte {
	return append([]byte{local}, payload...)
}

func u16le(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

func u32le(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func decodeAll(t *testing.T, dec *Decoder, data []byte) []Record {
	t.Helper()
	var recs []Record
	pos := 0
	for pos < len(data) {
		rec, next, err := dec.DecodeRecord(data, pos)
		if err != nil {
			t.Fatalf("DecodeRecord at offset %d: %v", pos, err)
		}
		if next <= pos {
			t.Fatalf("cursor did not advance past offset %d", pos)
		}
		recs = append(recs, rec)
		pos = next
	}
	return recs
}

func TestDefinitionAndDataRecord(t *testing.T) {
	var data []byte
	data = append(data, defRecord(0, 20,
		[3]byte{253, 4, 0x86}, // timestamp, uint32
		[3]byte{6, 2, 0x84},   // speed, uint16
		[3]byte{3, 1, 0x02},   // heart_rate, uint8
	)...)
	var payload []byte
	payload = append(payload, u32le(100000000)...)
	payload = append(payload, u16le(300)...)
	payload = append(payload, 150)
	data = append(data, dataRecord(0, payload...)...)

	dec := NewDecoder(nil, Options{Force: true})
	recs := decodeAll(t, dec, data)
	if len(recs) != 2 {
		t.Fatalf("decoded %d records, want 2", len(recs))
	}

	def := recs[0]
	if def.Kind != "definition" || def.GlobalNum != 20 || def.Local != 0 {
		t.Fatalf("definition record = %+v", def)
	}

	rec := recs[1]
	if rec.Kind != "record" || rec.GlobalNum != 20 {
		t.Fatalf("data record kind = %q global = %d", rec.Kind, rec.GlobalNum)
	}
	wantTS := EpochTime(100000000).Format(time.RFC3339)
	if rec.Fields["timestamp"] != wantTS {
		t.Errorf("timestamp = %v, want %v", rec.Fields["timestamp"], wantTS)
	}
	if rec.Fields["speed"] != float64(0.3) {
		t.Errorf("speed = %v, want 0.3", rec.Fields["speed"])
	}
	if rec.Fields["heart_rate"] != uint8(150) {
		t.Errorf("heart_rate = %v, want 150", rec.Fields["heart_rate"])
	}
}

func TestBigEndianDefinition(t *testing.T) {
	// Hand-built definition with arch 0x01: the global number and every
	// endian-capable field decode big-endian.
	data := []byte{
		0x40,       // definition, local 0
		0x00, 0x01, // reserved, big-endian arch
		0x00, 0x14, // global 20
		0x01,
		6, 2, 0x84, // speed, uint16
	}
	data = append(data, dataRecord(0, 0x01, 0x2C)...) // 300 big-endian

	dec := NewDecoder(nil, Options{})
	recs := decodeAll(t, dec, data)
	if recs[0].GlobalNum != 20 {
		t.Fatalf("big-endian global = %d, want 20", recs[0].GlobalNum)
	}
	if recs[1].Fields["speed"] != float64(0.3) {
		t.Fatalf("big-endian speed = %v, want 0.3", recs[1].Fields["speed"])
	}
}

func TestSentinelFieldsOmitted(t *testing.T) {
	var data []byte
	data = append(data, defRecord(0, 20,
		[3]byte{6, 2, 0x84}, // speed
		[3]byte{3, 1, 0x02}, // heart_rate
	)...)
	data = append(data, dataRecord(0, 0xFF, 0xFF, 0xFF)...)

	dec := NewDecoder(nil, Options{})
	recs := decodeAll(t, dec, data)
	if len(recs[1].Fields) != 0 {
		t.Fatalf("sentinel fields leaked into output: %v", recs[1].Fields)
	}
}

func TestCompressedTimestamp(t *testing.T) {
	var data []byte
	data = append(data, defRecord(0, 20,
		[3]byte{253, 4, 0x86},
		[3]byte{3, 1, 0x02},
	)...)
	data = append(data, defRecord(1, 20, [3]byte{3, 1, 0x02})...)

	// Full timestamp 37 seeds the accumulator with offset 37 & 0x1F = 5.
	var payload []byte
	payload = append(payload, u32le(37)...)
	payload = append(payload, 100)
	data = append(data, dataRecord(0, payload...)...)

	// Compressed header: slot 1, offset 2. The offset rolled over, so the
	// delta is (2 - 5) & 0x1F = 29 seconds.
	data = append(data, 0x80|1<<5|2, 110)

	dec := NewDecoder(nil, Options{Force: true})
	recs := decodeAll(t, dec, data)

	rec := recs[3]
	if rec.Kind != "record" {
		t.Fatalf("compressed record kind = %q", rec.Kind)
	}
	if rec.Fields["heart_rate"] != uint8(110) {
		t.Errorf("heart_rate = %v, want 110", rec.Fields["heart_rate"])
	}
	wantTS := EpochTime(66).Format(time.RFC3339)
	if rec.Fields["timestamp"] != wantTS {
		t.Errorf("reconstructed timestamp = %v, want %v", rec.Fields["timestamp"], wantTS)
	}
}

func TestCompressedTimestampWithoutSeed(t *testing.T) {
	// A compressed record before any full timestamp has nothing to advance;
	// no timestamp appears in the output.
	var data []byte
	data = append(data, defRecord(1, 20, [3]byte{3, 1, 0x02})...)
	data = append(data, 0x80|1<<5|7, 120)

	dec := NewDecoder(nil, Options{})
	recs := decodeAll(t, dec, data)
	if _, ok := recs[1].Fields["timestamp"]; ok {
		t.Fatalf("unseeded compressed record produced a timestamp: %v", recs[1].Fields)
	}
	if recs[1].Fields["heart_rate"] != uint8(120) {
		t.Fatalf("heart_rate = %v, want 120", recs[1].Fields["heart_rate"])
	}
}

func TestUnknownSlotFallsBackToSlotZero(t *testing.T) {
	var data []byte
	data = append(data, defRecord(0, 20, [3]byte{3, 1, 0x02})...)
	data = append(data, dataRecord(5, 99)...)

	dec := NewDecoder(nil, Options{})
	recs := decodeAll(t, dec, data)
	rec := recs[1]
	if rec.Local != 5 || rec.Kind != "record" {
		t.Fatalf("fallback record = %+v", rec)
	}
	if rec.Fields["heart_rate"] != uint8(99) {
		t.Fatalf("heart_rate = %v, want 99", rec.Fields["heart_rate"])
	}
}

func TestDataRecordWithNoDefinitions(t *testing.T) {
	dec := NewDecoder(nil, Options{Force: true})
	_, _, err := dec.DecodeRecord([]byte{0x05, 0x01}, 0)
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
}

func TestUnknownGlobalMessage(t *testing.T) {
	var data []byte
	data = append(data, defRecord(0, 4242, [3]byte{7, 2, 0x84})...)
	data = append(data, dataRecord(0, u16le(512)...)...)

	dec := NewDecoder(nil, Options{})
	recs := decodeAll(t, dec, data)
	if recs[1].Kind != "global_4242" {
		t.Fatalf("unknown message kind = %q, want global_4242", recs[1].Kind)
	}
	if len(recs[1].Fields) != 0 {
		t.Fatalf("unresolved fields stored: %v, want none", recs[1].Fields)
	}
}

func TestUnresolvedFieldsOmitted(t *testing.T) {
	// Field 99 has no name in the record dictionary; its bytes still
	// occupy the payload, so the named field around it must stay aligned.
	var data []byte
	data = append(data, defRecord(0, 20,
		[3]byte{3, 1, 0x02},
		[3]byte{99, 2, 0x84},
	)...)
	p1 := append([]byte{100}, u16le(777)...)
	p2 := append([]byte{110}, u16le(888)...)
	data = append(data, dataRecord(0, p1...)...)
	data = append(data, dataRecord(0, p2...)...)

	dec := NewDecoder(nil, Options{})
	recs := decodeAll(t, dec, data)
	for i, want := range []uint8{100, 110} {
		rec := recs[i+1]
		if len(rec.Fields) != 1 || rec.Fields["heart_rate"] != want {
			t.Errorf("record %d fields = %v, want only heart_rate=%d", i+1, rec.Fields, want)
		}
	}
}

func TestMalformedDefinitionSizes(t *testing.T) {
	// power declared as uint32 but sized at two bytes, plus a zero-size
	// heart_rate; a tolerant session keeps decoding around both.
	def := defRecord(0, 20,
		[3]byte{7, 2, 0x86},
		[3]byte{3, 0, 0x02},
		[3]byte{4, 1, 0x02},
	)
	var data []byte
	data = append(data, def...)
	data = append(data, dataRecord(0, 0x2C, 0x01, 90)...)

	dec := NewDecoder(nil, Options{Force: true})
	recs := decodeAll(t, dec, data)
	rec := recs[1]
	if rec.Fields["power"] != uint32(300) {
		t.Errorf("undersized power = %v, want assembled 300", rec.Fields["power"])
	}
	if v, ok := rec.Fields["heart_rate"]; ok {
		t.Errorf("zero-size heart_rate produced a value: %v", v)
	}
	if rec.Fields["cadence"] != uint8(90) {
		t.Errorf("cadence = %v, want 90", rec.Fields["cadence"])
	}

	strict := NewDecoder(nil, Options{})
	_, next, err := strict.DecodeRecord(data, 0)
	if err != nil {
		t.Fatalf("definition decode: %v", err)
	}
	if _, _, err := strict.DecodeRecord(data, next); err == nil {
		t.Fatal("strict decode accepted a mismatched field size")
	}
}

func TestDeveloperFieldRoundTrip(t *testing.T) {
	var data []byte
	data = append(data, defRecord(0, 206,
		[3]byte{0, 1, 0x02}, // developer_data_index
		[3]byte{1, 1, 0x02}, // field_definition_number
		[3]byte{2, 1, 0x02}, // fit_base_type_id
		[3]byte{3, 6, 0x07}, // field_name
		[3]byte{6, 1, 0x02}, // scale
		[3]byte{8, 4, 0x07}, // units
	)...)
	var desc []byte
	desc = append(desc, 0, 5, 0x84)
	desc = append(desc, []byte("hzone\x00")...)
	desc = append(desc, 10)
	desc = append(desc, []byte("bpm\x00")...)
	data = append(data, dataRecord(0, desc...)...)

	data = append(data, defRecordDev(1, 20,
		[][3]byte{{3, 1, 0x02}},
		[][3]byte{{5, 2, 0}},
	)...)
	var payload []byte
	payload = append(payload, 120)
	payload = append(payload, u16le(300)...)
	data = append(data, dataRecord(1, payload...)...)

	dec := NewDecoder(nil, Options{})
	recs := decodeAll(t, dec, data)

	rec := recs[3]
	if rec.Fields["heart_rate"] != uint8(120) {
		t.Errorf("heart_rate = %v, want 120", rec.Fields["heart_rate"])
	}
	// The descriptor's scale of 10 applies to the raw 300.
	if rec.Fields["hzone"] != float64(30) {
		t.Errorf("hzone = %v, want 30", rec.Fields["hzone"])
	}
}

func TestDeveloperFieldMissingDescriptor(t *testing.T) {
	def := defRecordDev(0, 20,
		[][3]byte{{3, 1, 0x02}},
		[][3]byte{{5, 2, 0}},
	)

	dec := NewDecoder(nil, Options{})
	_, _, err := dec.DecodeRecord(def, 0)
	if err == nil || !strings.Contains(err.Error(), "no field_description") {
		t.Fatalf("strict decode error = %v, want missing field_description", err)
	}

	// With Force the developer field drops out of the definition and only
	// the base fields decode.
	dec = NewDecoder(nil, Options{Force: true})
	var data []byte
	data = append(data, def...)
	data = append(data, dataRecord(0, 140)...)
	recs := decodeAll(t, dec, data)
	rec := recs[1]
	if len(rec.Fields) != 1 || rec.Fields["heart_rate"] != uint8(140) {
		t.Fatalf("force-decoded fields = %v, want heart_rate only", rec.Fields)
	}
}

func TestMonitoringTimestamp16(t *testing.T) {
	var data []byte
	data = append(data, defRecord(0, 55,
		[3]byte{253, 4, 0x86}, // timestamp
		[3]byte{26, 2, 0x84},  // timestamp16
	)...)

	// Full timestamp seeds the accumulator; timestamp16 is its sentinel.
	var p1 []byte
	p1 = append(p1, u32le(1000)...)
	p1 = append(p1, 0xFF, 0xFF)
	data = append(data, dataRecord(0, p1...)...)

	// Timestamp is its sentinel; timestamp16 advances the accumulator.
	var p2 []byte
	p2 = append(p2, 0xFF, 0xFF, 0xFF, 0xFF)
	p2 = append(p2, u16le(1005)...)
	data = append(data, dataRecord(0, p2...)...)

	dec := NewDecoder(nil, Options{Force: true})
	recs := decodeAll(t, dec, data)

	rec := recs[2]
	if rec.Kind != "monitoring" {
		t.Fatalf("kind = %q, want monitoring", rec.Kind)
	}
	wantTS := EpochTime(1005).Format(time.RFC3339)
	if rec.Fields["timestamp"] != wantTS {
		t.Fatalf("rolled-forward timestamp = %v, want %v", rec.Fields["timestamp"], wantTS)
	}
}

func TestElapsedRecordFields(t *testing.T) {
	var data []byte
	data = append(data, defRecord(0, 20, [3]byte{253, 4, 0x86})...)
	data = append(data, dataRecord(0, u32le(160)...)...)

	dec := NewDecoder(nil, Options{
		Force:               true,
		ElapsedRecordFields: true,
		SessionStart:        EpochTime(100),
		PausedSeconds:       5,
	})
	recs := decodeAll(t, dec, data)

	rec := recs[1]
	if rec.Fields["elapsed_time"] != float64(60) {
		t.Errorf("elapsed_time = %v, want 60", rec.Fields["elapsed_time"])
	}
	if rec.Fields["timer_time"] != float64(55) {
		t.Errorf("timer_time = %v, want 55", rec.Fields["timer_time"])
	}
}

func TestDecoderStateDoesNotLeakAcrossSessions(t *testing.T) {
	var seed []byte
	seed = append(seed, defRecord(0, 20,
		[3]byte{253, 4, 0x86},
		[3]byte{3, 1, 0x02},
	)...)
	var payload []byte
	payload = append(payload, u32le(37)...)
	payload = append(payload, 100)
	seed = append(seed, dataRecord(0, payload...)...)

	first := NewDecoder(nil, Options{Force: true})
	decodeAll(t, first, seed)

	// A fresh decoder has no timestamp accumulator and no slot table.
	second := NewDecoder(nil, Options{Force: true})
	var data []byte
	data = append(data, defRecord(1, 20, [3]byte{3, 1, 0x02})...)
	data = append(data, 0x80|1<<5|2, 110)
	recs := decodeAll(t, second, data)
	if _, ok := recs[1].Fields["timestamp"]; ok {
		t.Fatalf("timestamp leaked from a previous session: %v", recs[1].Fields)
	}
}
