package fitproto

import (
	"fmt"
	"math"
)

// BaseType is a FIT primitive base type. The wire encoding carries it in the
// third byte of a field definition: bit 7 marks the type as endian-capable
// and the low 5 bits select the type itself.
type BaseType uint8

const (
	BaseEnum    BaseType = 0x00
	BaseSint8   BaseType = 0x01
	BaseUint8   BaseType = 0x02
	BaseSint16  BaseType = 0x03
	BaseUint16  BaseType = 0x04
	BaseSint32  BaseType = 0x05
	BaseUint32  BaseType = 0x06
	BaseString  BaseType = 0x07
	BaseFloat32 BaseType = 0x08
	BaseFloat64 BaseType = 0x09
	BaseUint8z  BaseType = 0x0A
	BaseUint16z BaseType = 0x0B
	BaseUint32z BaseType = 0x0C
	BaseByte    BaseType = 0x0D
	BaseSint64  BaseType = 0x0E
	BaseUint64  BaseType = 0x0F
	BaseUint64z BaseType = 0x10
)

const (
	baseTypeEndianFlag = 0x80
	baseTypeCodeMask   = 0x1F
)

type baseSpec struct {
	name string
	size int
}

var baseSpecs = map[BaseType]baseSpec{
	BaseEnum:    {name: "enum", size: 1},
	BaseSint8:   {name: "sint8", size: 1},
	BaseUint8:   {name: "uint8", size: 1},
	BaseSint16:  {name: "sint16", size: 2},
	BaseUint16:  {name: "uint16", size: 2},
	BaseSint32:  {name: "sint32", size: 4},
	BaseUint32:  {name: "uint32", size: 4},
	BaseString:  {name: "string", size: 1},
	BaseFloat32: {name: "float32", size: 4},
	BaseFloat64: {name: "float64", size: 8},
	BaseUint8z:  {name: "uint8z", size: 1},
	BaseUint16z: {name: "uint16z", size: 2},
	BaseUint32z: {name: "uint32z", size: 4},
	BaseByte:    {name: "byte", size: 1},
	BaseSint64:  {name: "sint64", size: 8},
	BaseUint64:  {name: "uint64", size: 8},
	BaseUint64z: {name: "uint64z", size: 8},
}

// ParseBaseTypeByte splits a raw field-definition type byte into the base
// type code and its endian-capable flag.
func ParseBaseTypeByte(b byte) (BaseType, bool) {
	return BaseType(b & baseTypeCodeMask), b&baseTypeEndianFlag != 0
}

// Name returns the primitive type name for the base type, or a stable
// placeholder for codes outside the dictionary.
func (bt BaseType) Name() string {
	if spec, ok := baseSpecs[bt]; ok {
		return spec.name
	}
	return fmt.Sprintf("base_0x%02X", uint8(bt))
}

func (bt BaseType) String() string { return bt.Name() }

// ElementSize returns the byte width of one value of this base type, or 0
// for unknown codes.
func (bt BaseType) ElementSize() int {
	if spec, ok := baseSpecs[bt]; ok {
		return spec.size
	}
	return 0
}

// Sentinel reports whether v is the reserved "field not present" value for
// this base type. A field whose decoded raw value is its sentinel must be
// omitted from the decoded mapping entirely.
func (bt BaseType) Sentinel(v any) bool {
	switch bt {
	case BaseEnum, BaseUint8, BaseByte:
		u, ok := rawUint(v)
		return ok && u == 0xFF
	case BaseSint8:
		i, ok := rawInt(v)
		return ok && i == 0x7F
	case BaseSint16:
		i, ok := rawInt(v)
		return ok && i == 0x7FFF
	case BaseUint16:
		u, ok := rawUint(v)
		return ok && u == 0xFFFF
	case BaseSint32:
		i, ok := rawInt(v)
		return ok && i == 0x7FFFFFFF
	case BaseUint32:
		u, ok := rawUint(v)
		return ok && u == 0xFFFFFFFF
	case BaseFloat32:
		if f, ok := v.(float32); ok {
			return math.Float32bits(f) == 0xFFFFFFFF
		}
		u, ok := rawUint(v)
		return ok && u == 0xFFFFFFFF
	case BaseFloat64:
		if f, ok := v.(float64); ok {
			return math.Float64bits(f) == 0xFFFFFFFFFFFFFFFF
		}
		return false
	case BaseSint64:
		i, ok := rawInt(v)
		return ok && i == 0x7FFFFFFFFFFFFFFF
	case BaseUint64:
		u, ok := rawUint(v)
		return ok && u == 0xFFFFFFFFFFFFFFFF
	case BaseUint8z, BaseUint16z, BaseUint32z, BaseUint64z:
		u, ok := rawUint(v)
		return ok && u == 0
	case BaseString:
		s, ok := v.(string)
		return ok && s == ""
	default:
		return false
	}
}

// rawUint widens any unsigned decoded scalar to uint64.
func rawUint(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	default:
		return 0, false
	}
}

// rawInt widens any signed decoded scalar to int64. Unsigned scalars are
// accepted too so fallback-assembled values still classify.
func rawInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	}
	if u, ok := rawUint(v); ok && u <= math.MaxInt64 {
		return int64(u), true
	}
	return 0, false
}
