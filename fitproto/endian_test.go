package fitproto

import "testing"

func TestAssembleUint32(t *testing.T) {
	cases := []struct {
		name   string
		in     []byte
		little bool
		want   uint32
	}{
		{name: "two bytes little-endian", in: []byte{0x01, 0x02}, little: true, want: 0x0201},
		{name: "two bytes big-endian", in: []byte{0x01, 0x02}, little: false, want: 0x0102},
		{name: "four bytes little-endian", in: []byte{0x78, 0x56, 0x34, 0x12}, little: true, want: 0x12345678},
		{name: "four bytes big-endian", in: []byte{0x12, 0x34, 0x56, 0x78}, little: false, want: 0x12345678},
		{name: "five bytes wrap little-endian", in: []byte{0x01, 0x02, 0x03, 0x04, 0x05}, little: true, want: 0x04030201},
		{name: "empty", in: nil, little: true, want: 0},
	}
	for _, tc := range cases {
		if got := AssembleUint32(tc.in, tc.little); got != tc.want {
			t.Errorf("%s: AssembleUint32 = 0x%08X, want 0x%08X", tc.name, got, tc.want)
		}
	}
}
