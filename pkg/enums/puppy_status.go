package enums

import "fmt"

// PuppyStatus tracks the sellable lifecycle of a single puppy.
type PuppyStatus string

const (
	PuppyStatusAvailable PuppyStatus = "available"
	PuppyStatusReserved  PuppyStatus = "reserved"
	PuppyStatusSold      PuppyStatus = "sold"
	PuppyStatusUpcoming  PuppyStatus = "upcoming"
	PuppyStatusArchived  PuppyStatus = "archived"
)

var validPuppyStatuses = []PuppyStatus{
	PuppyStatusAvailable,
	PuppyStatusReserved,
	PuppyStatusSold,
	PuppyStatusUpcoming,
	PuppyStatusArchived,
}

// String implements fmt.Stringer.
func (p PuppyStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PuppyStatus.
func (p PuppyStatus) IsValid() bool {
	for _, candidate := range validPuppyStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePuppyStatus converts raw input into a PuppyStatus.
func ParsePuppyStatus(value string) (PuppyStatus, error) {
	for _, candidate := range validPuppyStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid puppy status %q", value)
}
