package profile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Messages   map[uint16]yamlMessage               `yaml:"messages"`
	Types      map[string]yamlType                  `yaml:"types"`
	UnitFields map[string]string                    `yaml:"unit_fields"`
	Units      map[string]map[string]yamlConversion `yaml:"units"`
}

type yamlMessage struct {
	Name   string              `yaml:"name"`
	Fields map[uint8]yamlField `yaml:"fields"`
}

type yamlField struct {
	Name   string  `yaml:"name"`
	Type   string  `yaml:"type"`
	Scale  float64 `yaml:"scale"`
	Offset float64 `yaml:"offset"`
	Units  string  `yaml:"units"`
}

type yamlType struct {
	Mask    bool              `yaml:"mask"`
	MaskKey uint64            `yaml:"mask_key"`
	Values  map[uint64]string `yaml:"values"`
}

type yamlConversion struct {
	Multiplier float64 `yaml:"multiplier"`
	Offset     float64 `yaml:"offset"`
}

// Load returns the built-in profile with the YAML dictionary at path merged
// over it.
func Load(path string) (*Profile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("empty profile path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := Default()
	if err := p.Overlay(data); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Overlay merges a YAML dictionary into the profile. Message entries merge
// field by field; types, unit categories and conversion entries replace
// whatever they name.
func (p *Profile) Overlay(data []byte) error {
	var file yamlFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	for global, ym := range file.Messages {
		msg, ok := p.messages[global]
		if !ok {
			msg = Message{Fields: make(map[uint8]FieldAttr)}
		}
		if ym.Name != "" {
			msg.Name = ym.Name
		}
		if msg.Name == "" {
			return fmt.Errorf("message %d: missing name", global)
		}
		for num, yf := range ym.Fields {
			if yf.Name == "" {
				return fmt.Errorf("message %d field %d: missing name", global, num)
			}
			msg.Fields[num] = FieldAttr{
				Name:   yf.Name,
				Type:   yf.Type,
				Scale:  yf.Scale,
				Offset: yf.Offset,
				Units:  yf.Units,
			}
		}
		p.messages[global] = msg
	}

	for name, yt := range file.Types {
		if yt.Mask && yt.MaskKey == 0 {
			return fmt.Errorf("type %s: mask without mask_key", name)
		}
		values := make(map[uint64]string, len(yt.Values))
		for k, v := range yt.Values {
			values[k] = v
		}
		p.types[name] = Type{IsMask: yt.Mask, MaskKey: yt.MaskKey, Values: values}
	}

	for field, cat := range file.UnitFields {
		p.fieldCats[field] = cat
	}
	for cat, byUnit := range file.Units {
		dst, ok := p.conversions[cat]
		if !ok {
			dst = make(map[string]Conversion)
			p.conversions[cat] = dst
		}
		for unit, yc := range byUnit {
			dst[unit] = Conversion{Multiplier: yc.Multiplier, Offset: yc.Offset}
		}
	}
	return nil
}
