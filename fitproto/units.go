package fitproto

import "fit-decoder/profile"

// convertUnits rescales speed-, distance-, and temperature-like fields into
// the caller's chosen units. Fields outside the three categories, units left
// unset, and units with no table entry all pass through unchanged.
func convertUnits(name string, v any, prof *profile.Profile, opts Options) any {
	cat, ok := prof.UnitCategory(name)
	if !ok {
		return v
	}
	var unit string
	switch cat {
	case profile.CategorySpeed:
		unit = opts.SpeedUnit
	case profile.CategoryDistance:
		unit = opts.LengthUnit
	case profile.CategoryTemperature:
		unit = opts.TemperatureUnit
	}
	if unit == "" {
		return v
	}
	conv, ok := prof.Conversion(cat, unit)
	if !ok {
		return v
	}
	switch x := v.(type) {
	case float64:
		return x*conv.Multiplier + conv.Offset
	case []float64:
		out := make([]float64, len(x))
		for i, e := range x {
			out[i] = e*conv.Multiplier + conv.Offset
		}
		return out
	}
	if f, ok := rawFloat(v); ok {
		return f*conv.Multiplier + conv.Offset
	}
	return v
}
