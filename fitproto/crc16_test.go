package fitproto

import "testing"

func TestChecksumGoldenVectors(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want uint16
	}{
		{name: "single byte", in: []byte{0x01}, want: 0xC0C1},
		{name: "check string", in: []byte("123456789"), want: 0xBB3D},
		{name: "empty", in: nil, want: 0x0000},
	}
	for _, tc := range cases {
		if got := Checksum(tc.in); got != tc.want {
			t.Errorf("%s: Checksum = 0x%04X, want 0x%04X", tc.name, got, tc.want)
		}
	}
}

func TestChecksumRangeMatchesSubslice(t *testing.T) {
	buf := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03}
	if got, want := ChecksumRange(buf, 2, 5), Checksum(buf[2:5]); got != want {
		t.Fatalf("ChecksumRange = 0x%04X, want 0x%04X", got, want)
	}
	// Out-of-range bounds clamp instead of panicking.
	if got, want := ChecksumRange(buf, 0, 100), Checksum(buf); got != want {
		t.Fatalf("clamped ChecksumRange = 0x%04X, want 0x%04X", got, want)
	}
}

func TestStreamingCRCMatchesChecksum(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	var crc CRC16
	if _, err := crc.Write(data[:10]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := crc.Write(data[10:]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got, want := crc.Sum16(), Checksum(data); got != want {
		t.Fatalf("streaming Sum16 = 0x%04X, want 0x%04X", got, want)
	}

	crc.Reset()
	if got := crc.Sum16(); got != 0 {
		t.Fatalf("Sum16 after Reset = 0x%04X, want 0", got)
	}
}
