package fitproto

import (
	"math"
	"testing"
)

func TestParseBaseTypeByte(t *testing.T) {
	bt, endian := ParseBaseTypeByte(0x84)
	if bt != BaseUint16 || !endian {
		t.Fatalf("ParseBaseTypeByte(0x84) = %v endian=%v, want uint16 endian=true", bt, endian)
	}
	bt, endian = ParseBaseTypeByte(0x02)
	if bt != BaseUint8 || endian {
		t.Fatalf("ParseBaseTypeByte(0x02) = %v endian=%v, want uint8 endian=false", bt, endian)
	}
	bt, _ = ParseBaseTypeByte(0x9E)
	if bt != BaseType(0x1E) {
		t.Fatalf("ParseBaseTypeByte(0x9E) code = 0x%02X, want 0x1E", uint8(bt))
	}
	if bt.Name() != "base_0x1E" {
		t.Fatalf("unknown base type name = %q", bt.Name())
	}
	if bt.ElementSize() != 0 {
		t.Fatalf("unknown base type size = %d, want 0", bt.ElementSize())
	}
}

func TestSentinelValues(t *testing.T) {
	cases := []struct {
		bt   BaseType
		v    any
		want bool
	}{
		{BaseEnum, uint8(0xFF), true},
		{BaseEnum, uint8(0x01), false},
		{BaseSint8, int8(0x7F), true},
		{BaseSint16, int16(0x7FFF), true},
		{BaseSint16, int16(-1), false},
		{BaseUint16, uint16(0xFFFF), true},
		{BaseUint16, uint16(0xFFFE), false},
		{BaseSint32, int32(0x7FFFFFFF), true},
		{BaseUint32, uint32(0xFFFFFFFF), true},
		{BaseFloat32, math.Float32frombits(0xFFFFFFFF), true},
		{BaseFloat32, float32(1.5), false},
		{BaseFloat64, math.Float64frombits(0xFFFFFFFFFFFFFFFF), true},
		{BaseUint16z, uint16(0), true},
		{BaseUint16z, uint16(1), false},
		{BaseUint8z, uint8(0), true},
		{BaseString, "", true},
		{BaseString, "edge_1030", false},
		{BaseUint64, uint64(0xFFFFFFFFFFFFFFFF), true},
		{BaseSint64, int64(0x7FFFFFFFFFFFFFFF), true},
	}
	for _, tc := range cases {
		if got := tc.bt.Sentinel(tc.v); got != tc.want {
			t.Errorf("%v.Sentinel(%v) = %v, want %v", tc.bt, tc.v, got, tc.want)
		}
	}
}
