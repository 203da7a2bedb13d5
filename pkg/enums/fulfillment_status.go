package enums

import "fmt"

// FulfillmentStatus tracks key delivery for a single order line. Issuance is
// automatic at confirmation and never reversed.
type FulfillmentStatus string

const (
	FulfillmentStatusPending FulfillmentStatus = "pending"
	FulfillmentStatusIssued  FulfillmentStatus = "issued"
)

var validFulfillmentStatuses = []FulfillmentStatus{
	FulfillmentStatusPending,
	FulfillmentStatusIssued,
}

// String implements fmt.Stringer.
func (f FulfillmentStatus) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentStatus.
func (f FulfillmentStatus) IsValid() bool {
	for _, candidate := range validFulfillmentStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFulfillmentStatus converts raw input into a FulfillmentStatus.
func ParseFulfillmentStatus(value string) (FulfillmentStatus, error) {
	for _, candidate := range validFulfillmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment status %q", value)
}
