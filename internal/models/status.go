package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PartStatus is the operational state of one computer part. The stored and
// wire value uses snake_case; Key returns the camelCase form the dashboard
// uses in memory.
type PartStatus string

const (
	StatusOperational    PartStatus = "operational"
	StatusNotOperational PartStatus = "not_operational"
	StatusDamaged        PartStatus = "damaged"
	StatusMissing        PartStatus = "missing"
)

// AllStatuses lists statuses in severity order.
var AllStatuses = []PartStatus{StatusOperational, StatusNotOperational, StatusDamaged, StatusMissing}

// Severity ranks a status: operational(0) < not_operational(1) < damaged(2) < missing(3).
func (s PartStatus) Severity() int {
	switch s {
	case StatusNotOperational:
		return 1
	case StatusDamaged:
		return 2
	case StatusMissing:
		return 3
	default:
		return 0
	}
}

// Code is the 1-based numeric form some clients still send and read.
func (s PartStatus) Code() int {
	return s.Severity() + 1
}

// Key is the in-memory label used by the dashboard.
func (s PartStatus) Key() string {
	if s == StatusNotOperational {
		return "notOperational"
	}
	return string(s)
}

func (s PartStatus) Valid() bool {
	switch s {
	case StatusOperational, StatusNotOperational, StatusDamaged, StatusMissing:
		return true
	}
	return false
}

// IsFault reports whether the status should raise an issue report.
func (s PartStatus) IsFault() bool {
	return s.Valid() && s != StatusOperational
}

// ParsePartStatus accepts the wire value, the camelCase key, loose
// capitalizations such as "Notoperational" and the numeric codes 1-4.
func ParsePartStatus(raw string) (PartStatus, error) {
	v := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(v); err == nil {
		if n >= 1 && n <= len(AllStatuses) {
			return AllStatuses[n-1], nil
		}
		return "", fmt.Errorf("unknown status code %d", n)
	}

	normalized := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(v))
	switch normalized {
	case "operational":
		return StatusOperational, nil
	case "notoperational":
		return StatusNotOperational, nil
	case "damaged":
		return StatusDamaged, nil
	case "missing":
		return StatusMissing, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// UnmarshalJSON accepts both string and numeric encodings.
func (s *PartStatus) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var text string
	switch v := raw.(type) {
	case string:
		text = v
	case float64:
		text = strconv.Itoa(int(v))
	default:
		return fmt.Errorf("status must be a string or number")
	}
	parsed, err := ParsePartStatus(text)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MaxSeverity folds statuses into the worst one. An empty set is operational.
func MaxSeverity(statuses ...PartStatus) PartStatus {
	worst := StatusOperational
	for _, s := range statuses {
		if s.Severity() > worst.Severity() {
			worst = s
		}
	}
	return worst
}

// PartKind separates the fixed standard slots from user-defined parts.
type PartKind string

const (
	PartStandard PartKind = "standard"
	PartCustom   PartKind = "custom"
)

// ParsePartKind defaults to standard; "other" is an alias for custom.
func ParsePartKind(raw string) (PartKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "standard":
		return PartStandard, nil
	case "custom", "other":
		return PartCustom, nil
	}
	return "", fmt.Errorf("unknown part type %q", raw)
}

// StandardPartNames are the eight slots every computer has, in display order.
var StandardPartNames = []string{"monitor", "systemUnit", "keyboard", "mouse", "headphone", "hdmi", "power", "wifi"}

func IsStandardPart(name string) bool {
	for _, p := range StandardPartNames {
		if p == name {
			return true
		}
	}
	return false
}
