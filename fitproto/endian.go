package fitproto

// AssembleUint32 combines an ordered byte sequence into an unsigned integer
// under the given byte order: byte i lands at bit offset 8*i after a
// big-endian input is reversed. Arithmetic is unsigned 32-bit, so inputs
// wider than four bytes wrap.
func AssembleUint32(b []byte, littleEndian bool) uint32 {
	var out uint32
	if littleEndian {
		for i := len(b) - 1; i >= 0; i-- {
			out = out<<8 | uint32(b[i])
		}
		return out
	}
	for _, v := range b {
		out = out<<8 | uint32(v)
	}
	return out
}
