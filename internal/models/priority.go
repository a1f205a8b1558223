package models

// Priority is the remediation urgency of a finding.
type Priority string

// Priority levels as constants for type safety and consistency.
const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
	PriorityNA       Priority = "N/A"
)

// ValidPriorities returns all priority levels, most urgent first.
func ValidPriorities() []Priority {
	return []Priority{
		PriorityCritical,
		PriorityHigh,
		PriorityMedium,
		PriorityLow,
		PriorityNA,
	}
}

// IsValidPriority checks if a priority level is valid.
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow, PriorityNA:
		return true
	default:
		return false
	}
}

// PriorityRank orders priorities for sorting; lower is more urgent.
// Unknown values sort after N/A.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	case PriorityNA:
		return 4
	default:
		return 5
	}
}

// String returns the priority text.
func (p Priority) String() string {
	return string(p)
}
