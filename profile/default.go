package profile

// Default builds a fresh profile from the built-in tables. Each call returns
// an independent copy so overlays never bleed between sessions.
func Default() *Profile {
	p := &Profile{
		messages:    make(map[uint16]Message, len(builtinMessages)),
		types:       make(map[string]Type, len(builtinTypes)),
		fieldCats:   make(map[string]string, len(builtinFieldCats)),
		conversions: make(map[string]map[string]Conversion, len(builtinConversions)),
	}
	for global, m := range builtinMessages {
		fields := make(map[uint8]FieldAttr, len(m.Fields))
		for num, attr := range m.Fields {
			fields[num] = attr
		}
		p.messages[global] = Message{Name: m.Name, Fields: fields}
	}
	for name, t := range builtinTypes {
		values := make(map[uint64]string, len(t.Values))
		for k, v := range t.Values {
			values[k] = v
		}
		p.types[name] = Type{IsMask: t.IsMask, MaskKey: t.MaskKey, Values: values}
	}
	for field, cat := range builtinFieldCats {
		p.fieldCats[field] = cat
	}
	for cat, byUnit := range builtinConversions {
		dst := make(map[string]Conversion, len(byUnit))
		for unit, c := range byUnit {
			dst[unit] = c
		}
		p.conversions[cat] = dst
	}
	return p
}

var builtinMessages = map[uint16]Message{
	0: {Name: "file_id", Fields: map[uint8]FieldAttr{
		0: {Name: "type", Type: "file"},
		1: {Name: "manufacturer", Type: "manufacturer"},
		2: {Name: "product"},
		3: {Name: "serial_number"},
		4: {Name: "time_created", Type: "date_time", Units: "s_since_fit_epoch"},
		5: {Name: "number"},
		8: {Name: "product_name", Type: "string"},
	}},
	18: {Name: "session", Fields: map[uint8]FieldAttr{
		253: {Name: "timestamp", Type: "date_time", Units: "s_since_fit_epoch"},
		2:   {Name: "start_time", Type: "date_time", Units: "s_since_fit_epoch"},
		3:   {Name: "start_position_lat", Type: "sint32", Units: "deg"},
		4:   {Name: "start_position_long", Type: "sint32", Units: "deg"},
		5:   {Name: "sport", Type: "sport"},
		6:   {Name: "sub_sport", Type: "sub_sport"},
		7:   {Name: "total_elapsed_time", Scale: 1000, Units: "s"},
		8:   {Name: "total_timer_time", Scale: 1000, Units: "s"},
		9:   {Name: "total_distance", Scale: 100, Units: "m"},
		14:  {Name: "avg_speed", Scale: 1000, Units: "m/s"},
		15:  {Name: "max_speed", Scale: 1000, Units: "m/s"},
		16:  {Name: "avg_heart_rate", Units: "bpm"},
		17:  {Name: "max_heart_rate", Units: "bpm"},
		18:  {Name: "avg_cadence", Units: "rpm"},
		19:  {Name: "max_cadence", Units: "rpm"},
		20:  {Name: "avg_power", Units: "w"},
		21:  {Name: "max_power", Units: "w"},
		24:  {Name: "total_calories", Units: "kcal"},
		48:  {Name: "normalized_power", Units: "w"},
		57:  {Name: "threshold_power", Units: "w"},
	}},
	19: {Name: "lap", Fields: map[uint8]FieldAttr{
		253: {Name: "timestamp", Type: "date_time", Units: "s_since_fit_epoch"},
		2:   {Name: "start_time", Type: "date_time", Units: "s_since_fit_epoch"},
		7:   {Name: "total_elapsed_time", Scale: 1000, Units: "s"},
		8:   {Name: "total_timer_time", Scale: 1000, Units: "s"},
		9:   {Name: "total_distance", Scale: 100, Units: "m"},
		13:  {Name: "avg_speed", Scale: 1000, Units: "m/s"},
		14:  {Name: "max_speed", Scale: 1000, Units: "m/s"},
		15:  {Name: "avg_heart_rate", Units: "bpm"},
		16:  {Name: "max_heart_rate", Units: "bpm"},
		17:  {Name: "avg_cadence", Units: "rpm"},
		18:  {Name: "max_cadence", Units: "rpm"},
		19:  {Name: "avg_power", Units: "w"},
		20:  {Name: "max_power", Units: "w"},
		42:  {Name: "total_work", Units: "j"},
	}},
	20: {Name: "record", Fields: map[uint8]FieldAttr{
		253: {Name: "timestamp", Type: "date_time", Units: "s_since_fit_epoch"},
		0:   {Name: "position_lat", Type: "sint32", Units: "deg"},
		1:   {Name: "position_long", Type: "sint32", Units: "deg"},
		2:   {Name: "altitude", Scale: 5, Offset: -500, Units: "m"},
		3:   {Name: "heart_rate", Units: "bpm"},
		4:   {Name: "cadence", Units: "rpm"},
		5:   {Name: "distance", Scale: 100, Units: "m"},
		6:   {Name: "speed", Scale: 1000, Units: "m/s"},
		7:   {Name: "power", Units: "w"},
		9:   {Name: "grade", Scale: 100, Units: "%"},
		13:  {Name: "temperature", Units: "c"},
		30:  {Name: "left_right_balance", Type: "left_right_balance"},
		73:  {Name: "enhanced_speed", Scale: 1000, Units: "m/s"},
		78:  {Name: "enhanced_altitude", Scale: 5, Offset: -500, Units: "m"},
	}},
	21: {Name: "event", Fields: map[uint8]FieldAttr{
		253: {Name: "timestamp", Type: "date_time", Units: "s_since_fit_epoch"},
		0:   {Name: "event", Type: "event"},
		1:   {Name: "event_type", Type: "event_type"},
		2:   {Name: "data16"},
		3:   {Name: "data"},
		4:   {Name: "event_group"},
	}},
	23: {Name: "device_info", Fields: map[uint8]FieldAttr{
		253: {Name: "timestamp", Type: "date_time", Units: "s_since_fit_epoch"},
		0:   {Name: "device_index"},
		1:   {Name: "device_type"},
		2:   {Name: "manufacturer", Type: "manufacturer"},
		3:   {Name: "serial_number"},
		4:   {Name: "product"},
		5:   {Name: "software_version", Scale: 100},
		27:  {Name: "product_name", Type: "string"},
	}},
	26: {Name: "workout", Fields: map[uint8]FieldAttr{
		4: {Name: "wkt_name", Type: "string"},
		5: {Name: "sport", Type: "sport"},
		6: {Name: "sub_sport", Type: "sub_sport"},
		7: {Name: "num_valid_steps"},
		8: {Name: "capabilities"},
	}},
	27: {Name: "workout_step", Fields: map[uint8]FieldAttr{
		254: {Name: "message_index"},
		0:   {Name: "wkt_step_name", Type: "string"},
		1:   {Name: "duration_type", Type: "duration_type"},
		2:   {Name: "duration_value"},
		3:   {Name: "target_type"},
		4:   {Name: "target_value"},
		5:   {Name: "custom_target_value_low"},
		6:   {Name: "custom_target_value_high"},
		7:   {Name: "intensity", Type: "intensity"},
		8:   {Name: "notes", Type: "string"},
	}},
	34: {Name: "activity", Fields: map[uint8]FieldAttr{
		253: {Name: "timestamp", Type: "date_time", Units: "s_since_fit_epoch"},
		0:   {Name: "total_timer_time", Scale: 1000, Units: "s"},
		1:   {Name: "num_sessions"},
		2:   {Name: "type", Type: "activity"},
		3:   {Name: "event", Type: "event"},
		4:   {Name: "event_type", Type: "event_type"},
		5:   {Name: "local_timestamp", Type: "local_date_time"},
	}},
	49: {Name: "file_creator", Fields: map[uint8]FieldAttr{
		0: {Name: "software_version"},
		1: {Name: "hardware_version"},
	}},
	55: {Name: "monitoring", Fields: map[uint8]FieldAttr{
		253: {Name: "timestamp", Type: "date_time", Units: "s_since_fit_epoch"},
		0:   {Name: "device_index"},
		2:   {Name: "distance", Scale: 100, Units: "m"},
		3:   {Name: "cycles", Scale: 2},
		24:  {Name: "current_activity_type_intensity"},
		26:  {Name: "timestamp16"},
	}},
	206: {Name: "field_description", Fields: map[uint8]FieldAttr{
		0:  {Name: "developer_data_index"},
		1:  {Name: "field_definition_number"},
		2:  {Name: "fit_base_type_id"},
		3:  {Name: "field_name", Type: "string"},
		6:  {Name: "scale"},
		7:  {Name: "offset"},
		8:  {Name: "units", Type: "string"},
		14: {Name: "native_mesg_num"},
		15: {Name: "native_field_num"},
	}},
	207: {Name: "developer_data_id", Fields: map[uint8]FieldAttr{
		0: {Name: "developer_id"},
		1: {Name: "application_id"},
		2: {Name: "manufacturer_id", Type: "manufacturer"},
		3: {Name: "developer_data_index"},
		4: {Name: "application_version"},
	}},
}

var builtinTypes = map[string]Type{
	"file": {Values: map[uint64]string{
		1: "device", 2: "settings", 3: "sport", 4: "activity",
		5: "workout", 6: "course", 9: "weight", 32: "monitoring_b",
		44: "monitoring_daily",
	}},
	"sport": {Values: map[uint64]string{
		0: "generic", 1: "running", 2: "cycling", 3: "transition",
		4: "fitness_equipment", 5: "swimming", 11: "walking", 17: "hiking",
	}},
	"sub_sport": {Values: map[uint64]string{
		0: "generic", 1: "treadmill", 2: "street", 3: "trail", 4: "track",
		5: "spin", 6: "indoor_cycling", 7: "road", 8: "mountain", 9: "downhill",
	}},
	"event": {Values: map[uint64]string{
		0: "timer", 3: "workout", 4: "workout_step", 8: "session", 9: "lap",
	}},
	"event_type": {Values: map[uint64]string{
		0: "start", 1: "stop", 3: "marker", 4: "stop_all",
	}},
	"manufacturer": {Values: map[uint64]string{
		1: "garmin", 32: "wahoo_fitness", 255: "development",
	}},
	"activity": {Values: map[uint64]string{
		0: "manual", 1: "auto_multi_sport",
	}},
	"intensity": {Values: map[uint64]string{
		0: "active", 1: "rest", 2: "warmup", 3: "cooldown",
	}},
	"duration_type": {Values: map[uint64]string{
		0: "time", 1: "distance", 4: "calories", 5: "open",
	}},
	"left_right_balance": {IsMask: true, MaskKey: 0x7F, Values: map[uint64]string{
		0x80: "right", 0x7F: "mask",
	}},
}

var builtinFieldCats = map[string]string{
	"speed":          CategorySpeed,
	"enhanced_speed": CategorySpeed,
	"avg_speed":      CategorySpeed,
	"max_speed":      CategorySpeed,
	"vertical_speed": CategorySpeed,

	"distance":          CategoryDistance,
	"total_distance":    CategoryDistance,
	"altitude":          CategoryDistance,
	"enhanced_altitude": CategoryDistance,

	"temperature":     CategoryTemperature,
	"avg_temperature": CategoryTemperature,
	"max_temperature": CategoryTemperature,
}

var builtinConversions = map[string]map[string]Conversion{
	CategorySpeed: {
		"m/s":  {Multiplier: 1},
		"km/h": {Multiplier: 3.6},
		"mph":  {Multiplier: 2.236936},
	},
	CategoryDistance: {
		"m":  {Multiplier: 1},
		"km": {Multiplier: 0.001},
		"mi": {Multiplier: 0.000621371},
		"ft": {Multiplier: 3.28084},
	},
	CategoryTemperature: {
		"celsius":    {Multiplier: 1},
		"fahrenheit": {Multiplier: 1.8, Offset: 32},
	},
}
