package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/santabrisa/backend/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from the Sendcloud API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// SendcloudAdapter implements integration.SendcloudClient against the
// Sendcloud parcel API.
type SendcloudAdapter struct {
	config     *SendcloudConfig
	httpClient *http.Client
	baseURL    string
}

// SendcloudAdapterOption is a functional option for configuring the adapter
type SendcloudAdapterOption func(*SendcloudAdapter)

// WithSendcloudBaseURL overrides the API base URL. Used in tests.
func WithSendcloudBaseURL(baseURL string) SendcloudAdapterOption {
	return func(a *SendcloudAdapter) {
		a.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// NewSendcloudAdapter creates a new Sendcloud adapter with the given configuration
func NewSendcloudAdapter(config *SendcloudConfig, opts ...SendcloudAdapterOption) (*SendcloudAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &SendcloudAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// CreateParcel creates a parcel and requests a label. The order number rides
// along so the parcel can be correlated back even if the response is lost.
func (a *SendcloudAdapter) CreateParcel(ctx context.Context, spec integration.ParcelSpec) (integration.CreatedParcel, error) {
	length, width, height := splitDims(spec.DimsCm)
	payload := sendcloudCreateParcelRequest{
		Parcel: sendcloudParcelSpec{
			Name:         spec.Name,
			Address:      spec.Address,
			City:         spec.City,
			PostalCode:   spec.PostalCode,
			Country:      spec.Country,
			OrderNumber:  spec.OrderNumber,
			Weight:       strconv.FormatFloat(spec.WeightKg, 'f', 3, 64),
			Length:       length,
			Width:        width,
			Height:       height,
			Carrier:      spec.Carrier,
			RequestLabel: true,
		},
	}

	body, err := a.doRequest(ctx, http.MethodPost, "/parcels", payload)
	if err != nil {
		return integration.CreatedParcel{}, err
	}

	var resp sendcloudParcelResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return integration.CreatedParcel{}, &integration.APIError{
			Platform: "sendcloud",
			Status:   0,
			Body:     fmt.Sprintf("malformed parcel response: %v", err),
		}
	}

	return convertParcel(resp.Parcel), nil
}

// FetchParcels returns parcels updated since the given time
func (a *SendcloudAdapter) FetchParcels(ctx context.Context, since time.Time) ([]integration.CreatedParcel, error) {
	params := url.Values{}
	params.Set("updated_after", since.UTC().Format(time.RFC3339))

	body, err := a.doRequest(ctx, http.MethodGet, "/parcels?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp sendcloudParcelsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &integration.APIError{
			Platform: "sendcloud",
			Status:   0,
			Body:     fmt.Sprintf("malformed parcels response: %v", err),
		}
	}

	parcels := make([]integration.CreatedParcel, 0, len(resp.Parcels))
	for _, p := range resp.Parcels {
		parcels = append(parcels, convertParcel(p))
	}
	return parcels, nil
}

func (a *SendcloudAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("sendcloud: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("sendcloud: failed to create request: %w", err)
	}
	req.SetBasicAuth(a.config.PublicKey, a.config.SecretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &integration.APIError{Platform: "sendcloud", Status: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &integration.APIError{Platform: "sendcloud", Status: 0, Body: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &integration.APIError{
			Platform: "sendcloud",
			Status:   resp.StatusCode,
			Body:     string(body),
		}
	}
	return body, nil
}

// splitDims parses "LxWxH" dimensions in centimeters
func splitDims(dims string) (length, width, height string) {
	parts := strings.SplitN(dims, "x", 3)
	if len(parts) != 3 {
		return "", "", ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
}

// convertParcel maps the wire parcel onto the pipeline's view of it
func convertParcel(p sendcloudParcel) integration.CreatedParcel {
	parcel := integration.CreatedParcel{
		ID:           strconv.FormatInt(p.ID, 10),
		OrderNumber:  p.OrderNumber,
		TrackingCode: p.TrackingNumber,
		Carrier:      p.Carrier.Code,
		Status:       p.Status.Message,
		CreatedAt:    p.DateCreated,
	}
	if len(p.Label.NormalPrinter) > 0 {
		parcel.LabelURL = p.Label.NormalPrinter[0]
	}
	return parcel
}

// Ensure SendcloudAdapter implements SendcloudClient
var _ integration.SendcloudClient = (*SendcloudAdapter)(nil)
