package models

import "time"

// Collection names one of the two lists a package can live in.
type Collection string

const (
	CollectionActive   Collection = "active"
	CollectionArchived Collection = "archived"
)

func (c Collection) Valid() bool {
	return c == CollectionActive || c == CollectionArchived
}

// ParseCollection maps user input ("", "active", "archived", "archive") to a Collection.
func ParseCollection(s string) (Collection, bool) {
	switch s {
	case "", "active":
		return CollectionActive, true
	case "archived", "archive":
		return CollectionArchived, true
	default:
		return "", false
	}
}

const DefaultPackageName = "Package"

// Package is a tracked shipment. JSON names match the backup file format.
type Package struct {
	ID             string `json:"id"`
	TrackingNumber string `json:"trackingNumber"`
	Name           string `json:"name"`

	Provider    string `json:"provider"`
	ProviderKey string `json:"providerKey"`
	TrackingURL string `json:"trackingUrl,omitempty"`

	Status            string `json:"status"`
	Location          string `json:"location,omitempty"`
	EstimatedDelivery string `json:"estimatedDelivery,omitempty"`

	AddedDate    time.Time  `json:"addedDate"`
	LastUpdated  time.Time  `json:"lastUpdated"`
	ArchivedDate *time.Time `json:"archivedDate,omitempty"`
}

// PackagePatch lists the fields Update is allowed to merge. Nil means "keep".
type PackagePatch struct {
	Name              *string
	Status            *string
	Location          *string
	EstimatedDelivery *string
	LastUpdated       *time.Time
}

func (p PackagePatch) Empty() bool {
	return p.Name == nil && p.Status == nil && p.Location == nil &&
		p.EstimatedDelivery == nil && p.LastUpdated == nil
}

// Apply merges the set fields of p into pkg.
func (p PackagePatch) Apply(pkg *Package) {
	if p.Name != nil {
		pkg.Name = *p.Name
	}
	if p.Status != nil {
		pkg.Status = *p.Status
	}
	if p.Location != nil {
		pkg.Location = *p.Location
	}
	if p.EstimatedDelivery != nil {
		pkg.EstimatedDelivery = *p.EstimatedDelivery
	}
	if p.LastUpdated != nil {
		pkg.LastUpdated = *p.LastUpdated
	}
}

type PackageCreateInput struct {
	TrackingNumber string
	Name           string
}
