package fitproto

import (
	"math"
	"reflect"
	"testing"

	"fit-decoder/profile"
)

func TestConvertUnitsSpeed(t *testing.T) {
	prof := profile.Default()
	opts := Options{SpeedUnit: "km/h"}
	got := convertUnits("speed", float64(10), prof, opts)
	if f := got.(float64); math.Abs(f-36) > 1e-9 {
		t.Fatalf("10 m/s in km/h = %v, want 36", f)
	}
}

func TestConvertUnitsTemperatureOffset(t *testing.T) {
	prof := profile.Default()
	opts := Options{TemperatureUnit: "fahrenheit"}
	// Temperature fields carry raw integers; the converter widens them.
	got := convertUnits("temperature", uint8(25), prof, opts)
	if f := got.(float64); math.Abs(f-77) > 1e-9 {
		t.Fatalf("25 C in fahrenheit = %v, want 77", f)
	}
}

func TestConvertUnitsDistanceSlice(t *testing.T) {
	prof := profile.Default()
	opts := Options{LengthUnit: "km"}
	got := convertUnits("distance", []float64{1000, 2500}, prof, opts)
	if !reflect.DeepEqual(got, []float64{1, 2.5}) {
		t.Fatalf("distance slice in km = %#v", got)
	}
}

func TestConvertUnitsPassthrough(t *testing.T) {
	prof := profile.Default()

	// Fields outside the three categories never convert.
	if got := convertUnits("power", float64(250), prof, Options{SpeedUnit: "km/h"}); got != float64(250) {
		t.Fatalf("power = %v, want 250", got)
	}
	// No unit selected for the category.
	if got := convertUnits("speed", float64(10), prof, Options{}); got != float64(10) {
		t.Fatalf("speed without unit = %v, want 10", got)
	}
	// Unit with no table entry.
	if got := convertUnits("speed", float64(10), prof, Options{SpeedUnit: "furlongs/fortnight"}); got != float64(10) {
		t.Fatalf("speed with unknown unit = %v, want 10", got)
	}
}
