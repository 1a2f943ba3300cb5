package profile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLookups(t *testing.T) {
	p := Default()

	msg, ok := p.Message(20)
	if !ok || msg.Name != "record" {
		t.Fatalf("Message(20) = %+v ok=%v", msg, ok)
	}
	speed := msg.Fields[6]
	if speed.Name != "speed" || speed.Scale != 1000 || speed.Units != "m/s" {
		t.Fatalf("record speed attr = %+v", speed)
	}
	alt := msg.Fields[2]
	if alt.Scale != 5 || alt.Offset != -500 {
		t.Fatalf("record altitude attr = %+v", alt)
	}

	if _, ok := p.Message(9999); ok {
		t.Fatal("Message(9999) resolved unexpectedly")
	}

	sport, ok := p.Type("sport")
	if !ok || sport.Values[2] != "cycling" {
		t.Fatalf("Type(sport) = %+v ok=%v", sport, ok)
	}
	balance, ok := p.Type("left_right_balance")
	if !ok || !balance.IsMask || balance.MaskKey != 0x7F {
		t.Fatalf("Type(left_right_balance) = %+v ok=%v", balance, ok)
	}

	if cat, ok := p.UnitCategory("enhanced_speed"); !ok || cat != CategorySpeed {
		t.Fatalf("UnitCategory(enhanced_speed) = %q ok=%v", cat, ok)
	}
	if conv, ok := p.Conversion(CategoryTemperature, "fahrenheit"); !ok || conv.Multiplier != 1.8 || conv.Offset != 32 {
		t.Fatalf("Conversion(temperature, fahrenheit) = %+v ok=%v", conv, ok)
	}
}

func TestDefaultCopiesAreIndependent(t *testing.T) {
	a := Default()
	b := Default()

	msg, _ := a.Message(20)
	msg.Fields[6] = FieldAttr{Name: "mutated"}

	fresh, _ := b.Message(20)
	if fresh.Fields[6].Name != "speed" {
		t.Fatal("mutation of one Default() copy reached another")
	}
}

func TestOverlayMergesMessages(t *testing.T) {
	p := Default()
	overlay := `
messages:
  20:
    fields:
      6: {name: speed, scale: 500, units: "m/s"}
      62: {name: custom_metric, scale: 10}
  400:
    name: vendor_status
    fields:
      0: {name: mode, type: vendor_mode}
types:
  vendor_mode:
    values:
      0: idle
      1: active
unit_fields:
  custom_metric: distance
units:
  distance:
    yd: {multiplier: 1.09361}
`
	if err := p.Overlay([]byte(overlay)); err != nil {
		t.Fatalf("Overlay: %v", err)
	}

	msg, _ := p.Message(20)
	if msg.Name != "record" {
		t.Fatalf("overlay renamed record to %q", msg.Name)
	}
	if msg.Fields[6].Scale != 500 {
		t.Fatalf("speed scale = %v, want overlay's 500", msg.Fields[6].Scale)
	}
	if msg.Fields[62].Name != "custom_metric" {
		t.Fatalf("added field = %+v", msg.Fields[62])
	}
	if msg.Fields[3].Name != "heart_rate" {
		t.Fatal("untouched built-in field lost during overlay")
	}

	vendor, ok := p.Message(400)
	if !ok || vendor.Name != "vendor_status" || vendor.Fields[0].Type != "vendor_mode" {
		t.Fatalf("new message = %+v ok=%v", vendor, ok)
	}
	if vt, ok := p.Type("vendor_mode"); !ok || vt.Values[1] != "active" {
		t.Fatalf("new type = %+v ok=%v", vt, ok)
	}
	if conv, ok := p.Conversion(CategoryDistance, "yd"); !ok || conv.Multiplier != 1.09361 {
		t.Fatalf("added conversion = %+v ok=%v", conv, ok)
	}
	if cat, ok := p.UnitCategory("custom_metric"); !ok || cat != CategoryDistance {
		t.Fatalf("added unit field = %q ok=%v", cat, ok)
	}
}

func TestOverlayValidation(t *testing.T) {
	p := Default()
	if err := p.Overlay([]byte("messages:\n  401:\n    fields:\n      0: {name: x}\n")); err == nil {
		t.Error("new message without a name accepted")
	}
	if err := p.Overlay([]byte("messages:\n  20:\n    fields:\n      90: {scale: 2}\n")); err == nil {
		t.Error("field without a name accepted")
	}
	if err := p.Overlay([]byte("types:\n  broken:\n    mask: true\n")); err == nil {
		t.Error("mask type without mask_key accepted")
	}
	if err := p.Overlay([]byte("messages: [nope]")); err == nil {
		t.Error("malformed YAML accepted")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	content := "messages:\n  20:\n    fields:\n      6: {name: speed, scale: 500}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	msg, _ := p.Message(20)
	if msg.Fields[6].Scale != 500 {
		t.Fatalf("loaded scale = %v, want 500", msg.Fields[6].Scale)
	}

	if _, err := Load(""); err == nil {
		t.Error("empty path accepted")
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}
