package fitproto

import (
	"encoding/binary"
	"fmt"
	"math"
)

// valueKind is the closed set of decode strategies the primitive field
// reader dispatches on. It is derived once, when a field definition is
// resolved, from the field's semantic type name.
type valueKind int

const (
	kindOther valueKind = iota
	kindSint16
	kindUint16
	kindUint16z
	kindSint32
	kindUint32
	kindUint32z
	kindFloat32
	kindFloat64
	kindUint16Array
	kindUint32Array
	kindString
	kindByteArray
)

func valueKindFor(typeName string) valueKind {
	switch typeName {
	case "sint16":
		return kindSint16
	case "uint16":
		return kindUint16
	case "uint16z":
		return kindUint16z
	case "sint32":
		return kindSint32
	case "uint32":
		return kindUint32
	case "uint32z":
		return kindUint32z
	case "float32":
		return kindFloat32
	case "float64":
		return kindFloat64
	case "uint16_array":
		return kindUint16Array
	case "uint32_array":
		return kindUint32Array
	case "string":
		return kindString
	case "byte_array":
		return kindByteArray
	default:
		return kindOther
	}
}

func byteOrder(littleEndian bool) binary.ByteOrder {
	if littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// readFieldValue extracts one field's raw value from buf at off according to
// the field definition. Multi-byte numeric kinds decode natively under the
// field's endianness; an endian-capable field of any other kind, or one whose
// declared size cannot hold its kind's width, is a decode failure unless
// force is set, in which case the value falls back to the endian assembler.
// Strings drop every zero byte in the field, not just a trailing terminator.
func readFieldValue(buf []byte, fd FieldDef, off int, force bool) (any, error) {
	size := int(fd.Size)
	if size == 0 {
		return nil, fmt.Errorf("field %d declares zero size", fd.Num)
	}
	if off+size > len(buf) {
		return nil, fmt.Errorf("field %d (%d bytes) extends past record end", fd.Num, size)
	}
	raw := buf[off : off+size]

	if fd.kind == kindString {
		return dropZeroBytes(raw), nil
	}

	if fd.EndianCapable && size > 1 {
		// The declared size is authoritative for cursor advance but a
		// malformed definition can disagree with the type's width; never
		// index past what the definition actually reserved.
		if !sizeFitsKind(fd.kind, size) {
			if !force {
				return nil, fmt.Errorf("field %d declares %d bytes for type %q", fd.Num, size, fd.Attr.Type)
			}
			return AssembleUint32(raw, fd.LittleEndian), nil
		}
		order := byteOrder(fd.LittleEndian)
		switch fd.kind {
		case kindSint16:
			return int16(order.Uint16(raw)), nil
		case kindUint16, kindUint16z:
			return order.Uint16(raw), nil
		case kindSint32:
			return int32(order.Uint32(raw)), nil
		case kindUint32, kindUint32z:
			return order.Uint32(raw), nil
		case kindFloat32:
			return math.Float32frombits(order.Uint32(raw)), nil
		case kindFloat64:
			return math.Float64frombits(order.Uint64(raw)), nil
		case kindUint16Array:
			out := make([]uint16, 0, size/2)
			for i := 0; i+2 <= size; i += 2 {
				out = append(out, order.Uint16(raw[i:i+2]))
			}
			return out, nil
		case kindUint32Array:
			out := make([]uint32, 0, size/4)
			for i := 0; i+4 <= size; i += 4 {
				out = append(out, order.Uint32(raw[i:i+4]))
			}
			return out, nil
		default:
			if !force {
				return nil, fmt.Errorf("unsupported multi-byte type %q for field %d", fd.Attr.Type, fd.Num)
			}
			return AssembleUint32(raw, fd.LittleEndian), nil
		}
	}

	if fd.kind == kindByteArray || size > 1 {
		out := make([]byte, size)
		copy(out, raw)
		return out, nil
	}
	return raw[0], nil
}

// sizeFitsKind reports whether a declared field size can hold the kind's
// native representation. Kinds without a fixed width always fit.
func sizeFitsKind(k valueKind, size int) bool {
	switch k {
	case kindSint16, kindUint16, kindUint16z:
		return size == 2
	case kindSint32, kindUint32, kindUint32z, kindFloat32:
		return size == 4
	case kindFloat64:
		return size == 8
	case kindUint16Array:
		return size%2 == 0
	case kindUint32Array:
		return size%4 == 0
	default:
		return true
	}
}

func dropZeroBytes(raw []byte) string {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b != 0x00 {
			out = append(out, b)
		}
	}
	return string(out)
}
