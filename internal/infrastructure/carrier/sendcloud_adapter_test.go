package carrier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santabrisa/backend/internal/domain/integration"
)

func TestSendcloudConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *SendcloudConfig
		wantErr error
	}{
		{
			name:    "valid config",
			config:  NewSendcloudConfig("pk_test", "sk_test"),
			wantErr: nil,
		},
		{
			name:    "missing public key",
			config:  &SendcloudConfig{SecretKey: "sk_test"},
			wantErr: ErrSendcloudConfigMissingPublicKey,
		},
		{
			name:    "missing secret key",
			config:  &SendcloudConfig{PublicKey: "pk_test"},
			wantErr: ErrSendcloudConfigMissingSecretKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, SendcloudDefaultBaseURL, tt.config.BaseURL)
			}
		})
	}
}

func TestSendcloudAdapter_CreateParcel(t *testing.T) {
	t.Run("requests a label and maps the response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "pk_test", user)
			assert.Equal(t, "sk_test", pass)
			assert.Equal(t, "/parcels", r.URL.Path)

			var req sendcloudCreateParcelRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "#1042", req.Parcel.OrderNumber)
			assert.Equal(t, "7.200", req.Parcel.Weight)
			assert.Equal(t, "40", req.Parcel.Length)
			assert.Equal(t, "30", req.Parcel.Width)
			assert.Equal(t, "25", req.Parcel.Height)
			assert.True(t, req.Parcel.RequestLabel)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"parcel": {
					"id": 31337,
					"order_number": "#1042",
					"tracking_number": "SC123456789NL",
					"carrier": {"code": "dpd"},
					"label": {"normal_printer": ["https://panel.sendcloud.sc/labels/31337"]},
					"status": {"message": "Ready to send"},
					"date_created": "2026-08-30T11:00:00Z"
				}
			}`))
		}))
		defer server.Close()

		adapter, err := NewSendcloudAdapter(
			NewSendcloudConfig("pk_test", "sk_test"),
			WithSendcloudBaseURL(server.URL),
		)
		require.NoError(t, err)

		created, err := adapter.CreateParcel(context.Background(), integration.ParcelSpec{
			OrderNumber: "#1042",
			Name:        "Bar Manolo",
			Address:     "Calle Mayor 1",
			City:        "Madrid",
			PostalCode:  "28001",
			Country:     "ES",
			Carrier:     "dpd",
			WeightKg:    7.2,
			DimsCm:      "40x30x25",
		})

		require.NoError(t, err)
		assert.Equal(t, "31337", created.ID)
		assert.Equal(t, "SC123456789NL", created.TrackingCode)
		assert.Equal(t, "https://panel.sendcloud.sc/labels/31337", created.LabelURL)
		assert.Equal(t, "dpd", created.Carrier)
	})

	t.Run("validation error surfaces as non-retryable APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": {"message": "postal code invalid"}}`, http.StatusBadRequest)
		}))
		defer server.Close()

		adapter, err := NewSendcloudAdapter(
			NewSendcloudConfig("pk_test", "sk_test"),
			WithSendcloudBaseURL(server.URL),
		)
		require.NoError(t, err)

		_, err = adapter.CreateParcel(context.Background(), integration.ParcelSpec{OrderNumber: "#1"})

		apiErr, ok := integration.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.False(t, apiErr.Retryable())
	})
}

func TestSendcloudAdapter_FetchParcels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parcels", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("updated_after"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"parcels": [
				{"id": 1, "order_number": "#1040", "tracking_number": "SC1NL", "carrier": {"code": "dpd"}},
				{"id": 2, "order_number": "#1041", "tracking_number": "SC2NL", "carrier": {"code": "correos"}}
			]
		}`))
	}))
	defer server.Close()

	adapter, err := NewSendcloudAdapter(
		NewSendcloudConfig("pk_test", "sk_test"),
		WithSendcloudBaseURL(server.URL),
	)
	require.NoError(t, err)

	parcels, err := adapter.FetchParcels(context.Background(), time.Now().Add(-24*time.Hour))

	require.NoError(t, err)
	require.Len(t, parcels, 2)
	assert.Equal(t, "#1040", parcels[0].OrderNumber)
	assert.Equal(t, "correos", parcels[1].Carrier)
}

func TestSplitDims(t *testing.T) {
	l, w, h := splitDims("40x30x25")
	assert.Equal(t, "40", l)
	assert.Equal(t, "30", w)
	assert.Equal(t, "25", h)

	l, w, h = splitDims("garbage")
	assert.Empty(t, l)
	assert.Empty(t, w)
	assert.Empty(t, h)
}
