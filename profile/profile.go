// Package profile holds the static dictionaries the decoder consults:
// message and field attributes by global message number, named enumeration
// and bitmask tables, and per-category unit conversion tables. The built-in
// tables cover the common activity-file messages; YAML overlays extend or
// replace them.
package profile

// SemicirclesToDegrees converts the fixed-point GPS angle unit to degrees.
const SemicirclesToDegrees = 180.0 / 2147483648.0

// Measurement categories the unit converter recognizes.
const (
	CategorySpeed       = "speed"
	CategoryDistance    = "distance"
	CategoryTemperature = "temperature"
)

// FieldAttr is the semantic interpretation of one field: its name, semantic
// type, scale/offset (zero scale means unscaled) and display units.
type FieldAttr struct {
	Name   string
	Type   string
	Scale  float64
	Offset float64
	Units  string
}

// Message maps a message's field-definition numbers to their attributes.
type Message struct {
	Name   string
	Fields map[uint8]FieldAttr
}

// Type is a named semantic type: either a plain enumeration of raw value to
// name, or a bitmask whose MaskKey entry marks the residue mask and whose
// other entries name flag bits.
type Type struct {
	IsMask  bool
	MaskKey uint64
	Values  map[uint64]string
}

// Conversion rescales a value into a target unit: out = in*Multiplier + Offset.
type Conversion struct {
	Multiplier float64
	Offset     float64
}

// Profile bundles every dictionary one decode session consults.
type Profile struct {
	messages    map[uint16]Message
	types       map[string]Type
	fieldCats   map[string]string
	conversions map[string]map[string]Conversion
}

// Message resolves a global message number to its name and field table.
func (p *Profile) Message(global uint16) (Message, bool) {
	m, ok := p.messages[global]
	return m, ok
}

// Type resolves a semantic type name to its enumeration or mask table.
func (p *Profile) Type(name string) (Type, bool) {
	t, ok := p.types[name]
	return t, ok
}

// UnitCategory reports which measurement category a field name belongs to.
func (p *Profile) UnitCategory(field string) (string, bool) {
	c, ok := p.fieldCats[field]
	return c, ok
}

// Conversion resolves a (category, unit) pair to its conversion entry.
func (p *Profile) Conversion(category, unit string) (Conversion, bool) {
	byUnit, ok := p.conversions[category]
	if !ok {
		return Conversion{}, false
	}
	c, ok := byUnit[unit]
	return c, ok
}
