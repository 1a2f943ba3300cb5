package fitproto

// crcTable is the 16-entry nibble lookup table of the FIT CRC-16. Each byte
// updates the running value in two half-byte steps with a 4-bit right shift
// in between.
var crcTable = [16]uint16{
	0x0000, 0xCC01, 0xD801, 0x1400,
	0xF001, 0x3C00, 0x2800, 0xE401,
	0xA001, 0x6C00, 0x7800, 0xB401,
	0x5000, 0x9C01, 0x8801, 0x4400,
}

func crcByte(crc uint16, b byte) uint16 {
	tmp := crcTable[crc&0x0F]
	crc = (crc >> 4) & 0x0FFF
	crc = crc ^ tmp ^ crcTable[b&0x0F]

	tmp = crcTable[crc&0x0F]
	crc = (crc >> 4) & 0x0FFF
	crc = crc ^ tmp ^ crcTable[(b>>4)&0x0F]
	return crc
}

// Checksum computes the FIT CRC-16 over buf.
func Checksum(buf []byte) uint16 {
	return ChecksumRange(buf, 0, len(buf))
}

// ChecksumRange computes the FIT CRC-16 over buf[start:end]. Indices are
// clamped to the buffer bounds.
func ChecksumRange(buf []byte, start, end int) uint16 {
	if start < 0 {
		start = 0
	}
	if end > len(buf) {
		end = len(buf)
	}
	var crc uint16
	for i := start; i < end; i++ {
		crc = crcByte(crc, buf[i])
	}
	return crc
}

// CRC16 is a streaming form of the checksum for callers that feed data in
// chunks.
type CRC16 struct {
	value uint16
}

// Write updates the running checksum with p. The error is always nil; the
// signature matches io.Writer so the calculator can sit in a MultiWriter.
func (c *CRC16) Write(p []byte) (int, error) {
	for _, b := range p {
		c.value = crcByte(c.value, b)
	}
	return len(p), nil
}

// Sum16 returns the current checksum value.
func (c *CRC16) Sum16() uint16 { return c.value }

// Reset returns the calculator to its initial state.
func (c *CRC16) Reset() { c.value = 0 }
