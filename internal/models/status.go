package models

import (
	"fmt"
	"strings"
)

// Status is the coverage classification of a requirement.
type Status string

// Fixed status values. Partial coverage uses PartialStatus.
const (
	StatusNoControlMapped Status = "GAP (NO CONTROL MAPPED)"
	StatusZeroCoverage    Status = "GAP (0% Coverage)"
	StatusMet             Status = "MET (100% Coverage)"
)

// Status kind prefixes.
const (
	StatusKindMet     = "MET"
	StatusKindPartial = "PARTIAL"
	StatusKindGap     = "GAP"
)

// PartialStatus formats a partial status; coverage is truncated to an integer.
func PartialStatus(coverage float64) Status {
	return Status(fmt.Sprintf("PARTIAL (Max %d%%)", int(coverage)))
}

// IsMet reports whether the status starts with MET.
func (s Status) IsMet() bool { return strings.HasPrefix(string(s), StatusKindMet) }

// IsPartial reports whether the status starts with PARTIAL.
func (s Status) IsPartial() bool { return strings.HasPrefix(string(s), StatusKindPartial) }

// IsGap reports whether the status starts with GAP.
func (s Status) IsGap() bool { return strings.HasPrefix(string(s), StatusKindGap) }

// Kind returns MET, PARTIAL, GAP or the empty string.
func (s Status) Kind() string {
	switch {
	case s.IsMet():
		return StatusKindMet
	case s.IsPartial():
		return StatusKindPartial
	case s.IsGap():
		return StatusKindGap
	default:
		return ""
	}
}

// String returns the status text.
func (s Status) String() string {
	return string(s)
}
