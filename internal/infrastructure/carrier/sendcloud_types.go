package carrier

import "time"

// sendcloudCreateParcelRequest is the envelope for parcel creation
type sendcloudCreateParcelRequest struct {
	Parcel sendcloudParcelSpec `json:"parcel"`
}

// sendcloudParcelSpec is the wire representation of a parcel to create
type sendcloudParcelSpec struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	OrderNumber  string `json:"order_number"`
	Weight       string `json:"weight"`
	Length       string `json:"length,omitempty"`
	Width        string `json:"width,omitempty"`
	Height       string `json:"height,omitempty"`
	Carrier      string `json:"carrier,omitempty"`
	RequestLabel bool   `json:"request_label"`
}

// sendcloudParcelResponse is the envelope for a single parcel
type sendcloudParcelResponse struct {
	Parcel sendcloudParcel `json:"parcel"`
}

// sendcloudParcelsResponse is the envelope for the parcels listing
type sendcloudParcelsResponse struct {
	Parcels []sendcloudParcel `json:"parcels"`
}

// sendcloudParcel is the wire representation of a parcel
type sendcloudParcel struct {
	ID             int64            `json:"id"`
	OrderNumber    string           `json:"order_number"`
	TrackingNumber string           `json:"tracking_number"`
	Carrier        sendcloudCarrier `json:"carrier"`
	Label          sendcloudLabel   `json:"label"`
	Status         sendcloudStatus  `json:"status"`
	DateCreated    time.Time        `json:"date_created"`
}

// sendcloudCarrier identifies the carrier assigned to a parcel
type sendcloudCarrier struct {
	Code string `json:"code"`
}

// sendcloudLabel carries the label document URLs
type sendcloudLabel struct {
	NormalPrinter []string `json:"normal_printer"`
}

// sendcloudStatus is the carrier-side parcel status
type sendcloudStatus struct {
	Message string `json:"message"`
}
