package enums

import "fmt"

// CommitmentStatus tracks a member commitment through distributor review.
type CommitmentStatus string

const (
	CommitmentStatusPending   CommitmentStatus = "pending"
	CommitmentStatusApproved  CommitmentStatus = "approved"
	CommitmentStatusDeclined  CommitmentStatus = "declined"
	CommitmentStatusCancelled CommitmentStatus = "cancelled"
)

var validCommitmentStatuses = []CommitmentStatus{
	CommitmentStatusPending,
	CommitmentStatusApproved,
	CommitmentStatusDeclined,
	CommitmentStatusCancelled,
}

// String implements fmt.Stringer.
func (c CommitmentStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CommitmentStatus.
func (c CommitmentStatus) IsValid() bool {
	for _, candidate := range validCommitmentStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsDecision reports whether the status is one a distributor can set.
func (c CommitmentStatus) IsDecision() bool {
	return c == CommitmentStatusApproved || c == CommitmentStatusDeclined
}

// ParseCommitmentStatus converts raw input into a CommitmentStatus.
func ParseCommitmentStatus(value string) (CommitmentStatus, error) {
	for _, candidate := range validCommitmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commitment status %q", value)
}
