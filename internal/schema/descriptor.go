package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Descriptor pins the column sets of relations whose schema is managed
// out of band. Pinned relations are never probed.
//
//	version: "2024-06"
//	relations:
//	  leases: [id, unit_id, start_date, end_date, rent_amount, security_deposit]
type Descriptor struct {
	Version   string              `yaml:"version"`
	Relations map[string][]string `yaml:"relations"`
}

// LoadDescriptor reads a YAML capability descriptor from path.
func LoadDescriptor(path string) (*Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capability descriptor: %w", err)
	}
	return ParseDescriptor(raw)
}

// ParseDescriptor decodes a YAML capability descriptor.
func ParseDescriptor(raw []byte) (*Descriptor, error) {
	var desc Descriptor
	if err := yaml.Unmarshal(raw, &desc); err != nil {
		return nil, fmt.Errorf("parse capability descriptor: %w", err)
	}
	for relation, cols := range desc.Relations {
		if len(cols) == 0 {
			return nil, fmt.Errorf("capability descriptor: relation %q lists no columns", relation)
		}
	}
	return &desc, nil
}
