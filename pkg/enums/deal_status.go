package enums

import "fmt"

// DealStatus is the deal's own lifecycle, independent of commitment review.
type DealStatus string

const (
	DealStatusActive   DealStatus = "active"
	DealStatusInactive DealStatus = "inactive"
)

var validDealStatuses = []DealStatus{
	DealStatusActive,
	DealStatusInactive,
}

// String implements fmt.Stringer.
func (d DealStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DealStatus.
func (d DealStatus) IsValid() bool {
	for _, candidate := range validDealStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDealStatus converts raw input into a DealStatus.
func ParseDealStatus(value string) (DealStatus, error) {
	for _, candidate := range validDealStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deal status %q", value)
}

// BulkDecision is the blanket outcome recorded on a deal.
type BulkDecision string

const (
	BulkDecisionApproved BulkDecision = "approved"
	BulkDecisionRejected BulkDecision = "rejected"
)

var validBulkDecisions = []BulkDecision{
	BulkDecisionApproved,
	BulkDecisionRejected,
}

// String implements fmt.Stringer.
func (b BulkDecision) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BulkDecision.
func (b BulkDecision) IsValid() bool {
	for _, candidate := range validBulkDecisions {
		if candidate == b {
			return true
		}
	}
	return false
}

// CommitmentStatus maps the deal-level decision onto the status its commitments end in.
func (b BulkDecision) CommitmentStatus() CommitmentStatus {
	if b == BulkDecisionApproved {
		return CommitmentStatusApproved
	}
	return CommitmentStatusDeclined
}

// BulkDecisionFor maps a commitment decision onto the deal-level decision.
func BulkDecisionFor(status CommitmentStatus) BulkDecision {
	if status == CommitmentStatusApproved {
		return BulkDecisionApproved
	}
	return BulkDecisionRejected
}

// ParseBulkDecision converts raw input into a BulkDecision.
func ParseBulkDecision(value string) (BulkDecision, error) {
	for _, candidate := range validBulkDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bulk decision %q", value)
}
