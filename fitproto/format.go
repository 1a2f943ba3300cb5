package fitproto

import (
	"time"

	"fit-decoder/profile"
)

// Epoch is the instant a raw value of zero in any timestamp field maps to.
var Epoch = time.Date(1989, time.December, 31, 0, 0, 0, 0, time.UTC)

// EpochTime converts raw seconds since the device epoch to a wall-clock time.
func EpochTime(raw uint32) time.Time {
	return Epoch.Add(time.Duration(raw) * time.Second)
}

// formatValue maps a raw field value to its semantic form: timestamps become
// RFC 3339 strings, enums are named, mask types split into flags plus a
// masked residue, semicircles become degrees, and scaled scalars become
// raw/scale + offset. Values with no semantic mapping pass through raw.
func formatValue(raw any, fd FieldDef, prof *profile.Profile) any {
	attr := fd.Attr

	switch attr.Type {
	case "date_time", "local_date_time":
		if u, ok := rawUint(raw); ok {
			return EpochTime(uint32(u)).Format(time.RFC3339)
		}
		return raw
	case "sint32":
		// The sint32 semantic type is reserved for GPS angles stored as
		// semicircles; scale/offset never apply to it.
		if i, ok := rawInt(raw); ok {
			return float64(i) * profile.SemicirclesToDegrees
		}
		return raw
	}

	if t, ok := prof.Type(attr.Type); ok {
		if u, uok := rawUint(raw); uok {
			if t.IsMask {
				return formatMask(u, t)
			}
			if name, found := t.Values[u]; found {
				return name
			}
			return raw
		}
		return raw
	}

	if attr.Scale != 0 && attr.Scale != 1 {
		switch arr := raw.(type) {
		case []uint16:
			out := make([]float64, len(arr))
			for i, e := range arr {
				out[i] = float64(e)/attr.Scale + attr.Offset
			}
			return out
		case []uint32:
			out := make([]float64, len(arr))
			for i, e := range arr {
				out[i] = float64(e)/attr.Scale + attr.Offset
			}
			return out
		}
		if f, ok := rawFloat(raw); ok {
			return f/attr.Scale + attr.Offset
		}
		return raw
	}
	if attr.Offset != 0 {
		if f, ok := rawFloat(raw); ok {
			return f + attr.Offset
		}
	}
	return raw
}

// formatMask expands a mask-typed raw value into its named flags and the
// residue under the mask key. Flag bits test through the high-bit shift the
// wire format uses for balance fields.
func formatMask(raw uint64, t profile.Type) map[string]any {
	out := make(map[string]any, len(t.Values)+1)
	for key, name := range t.Values {
		if key == t.MaskKey {
			continue
		}
		out[name] = ((raw & key) >> 7) != 0
	}
	out["value"] = raw & t.MaskKey
	return out
}

func rawFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	if i, ok := rawInt(v); ok {
		return float64(i), true
	}
	if u, ok := rawUint(v); ok {
		return float64(u), true
	}
	return 0, false
}
