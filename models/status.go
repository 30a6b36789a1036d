package models

// ListingStatus is the review state of a scraped listing.
type ListingStatus string

const (
	ListingNew       ListingStatus = "new"
	ListingProcessed ListingStatus = "processed"
	ListingApproved  ListingStatus = "approved"
	ListingConverted ListingStatus = "converted"
)

// statusOrder defines the review pipeline. A listing only ever moves one
// step to the right; the only other exit is deletion.
var statusOrder = []ListingStatus{
	ListingNew,
	ListingProcessed,
	ListingApproved,
	ListingConverted,
}

func (s ListingStatus) Valid() bool {
	for _, st := range statusOrder {
		if s == st {
			return true
		}
	}
	return false
}

// Next returns the immediate successor in the review pipeline.
// The second return is false for converted (terminal) and unknown statuses.
func (s ListingStatus) Next() (ListingStatus, bool) {
	for i, st := range statusOrder {
		if s == st && i+1 < len(statusOrder) {
			return statusOrder[i+1], true
		}
	}
	return "", false
}

// AllListingStatuses returns the pipeline statuses in review order.
func AllListingStatuses() []ListingStatus {
	return append([]ListingStatus(nil), statusOrder...)
}

// CanAdvance reports whether to is the immediate successor of from.
// Skipping stages and moving backwards are both rejected.
func CanAdvance(from, to ListingStatus) bool {
	next, ok := from.Next()
	return ok && next == to
}

// PropertyStatus is the CRM-side status vocabulary, unrelated to the
// listing review pipeline.
type PropertyStatus string

const (
	PropertyActive   PropertyStatus = "active"
	PropertySold     PropertyStatus = "sold"
	PropertyInactive PropertyStatus = "inactive"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyActive, PropertySold, PropertyInactive:
		return true
	}
	return false
}
