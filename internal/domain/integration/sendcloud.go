package integration

import (
	"context"
	"time"
)

// ParcelSpec describes a parcel/label resource to create on the carrier
// platform.
type ParcelSpec struct {
	OrderNumber string
	Name        string
	Address     string
	City        string
	PostalCode  string
	Country     string
	Carrier     string
	WeightKg    float64
	DimsCm      string
}

// CreatedParcel is the carrier platform's record of a parcel.
type CreatedParcel struct {
	ID           string
	OrderNumber  string
	TrackingCode string
	LabelURL     string
	Carrier      string
	Status       string
	CreatedAt    time.Time
}

// SendcloudClient is the port to the parcel-carrier platform.
type SendcloudClient interface {
	// CreateParcel creates a parcel and requests a label.
	CreateParcel(ctx context.Context, spec ParcelSpec) (CreatedParcel, error)
	// FetchParcels returns parcels updated since the given time. Used by the
	// reconciliation job to detect labels created externally whose local
	// write was lost.
	FetchParcels(ctx context.Context, since time.Time) ([]CreatedParcel, error)
}
