package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// PartInfo is the optional descriptive metadata of a part.
type PartInfo struct {
	Name   string `json:"name"`
	Serial string `json:"serial"`
}

// UnmarshalJSON also accepts a bare string, which older clients send as the part name.
func (p *PartInfo) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*p = PartInfo{Name: name}
		return nil
	}
	type plain PartInfo
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = PartInfo(v)
	return nil
}

// StandardParts maps each standard slot to its metadata.
type StandardParts map[string]PartInfo

// Validate rejects slots outside the fixed standard set.
func (p StandardParts) Validate() error {
	for key := range p {
		if !IsStandardPart(key) {
			return fmt.Errorf("unknown standard part %q", key)
		}
	}
	return nil
}

// Complete returns a copy holding every standard slot.
func (p StandardParts) Complete() StandardParts {
	out := make(StandardParts, len(StandardPartNames))
	for _, name := range StandardPartNames {
		out[name] = p[name]
	}
	return out
}

// CustomPart is a user-defined component; its name identifies it.
type CustomPart struct {
	Name   string `json:"name"`
	Serial string `json:"serial"`
}

// MaxCustomParts caps the custom part list per computer.
const MaxCustomParts = 10

// ValidateCustomParts checks names are present and unique.
func ValidateCustomParts(parts []CustomPart) error {
	if len(parts) > MaxCustomParts {
		return fmt.Errorf("at most %d custom parts are allowed", MaxCustomParts)
	}
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return fmt.Errorf("custom part name is required")
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("duplicate custom part %q", name)
		}
		seen[key] = true
	}
	return nil
}

// Computer is one PC in a laboratory with its declared parts.
type Computer struct {
	ID         uint                              `gorm:"primaryKey" json:"id"`
	LabID      uint                              `gorm:"not null;index;uniqueIndex:idx_computers_lab_name" json:"lab_id"`
	PCName     string                            `gorm:"column:pc_name;size:100;not null;uniqueIndex:idx_computers_lab_name" json:"pc_name"`
	Specs      datatypes.JSONType[StandardParts] `json:"specs"`
	OtherParts datatypes.JSONType[[]CustomPart]  `json:"other_parts"`
	CreatedAt  time.Time                         `json:"created_at"`
	UpdatedAt  time.Time                         `json:"updated_at"`
}

// TableName specifies the table name for Computer model
func (Computer) TableName() string {
	return "computers"
}

// HasPart reports whether the computer declares the given part.
func (c *Computer) HasPart(part string, kind PartKind) bool {
	if kind == PartStandard {
		return IsStandardPart(part)
	}
	for _, p := range c.OtherParts.Data() {
		if p.Name == part {
			return true
		}
	}
	return false
}

// ComputerWithLab adds the laboratory name for listings.
type ComputerWithLab struct {
	Computer
	LabName string `json:"lab_name"`
}
