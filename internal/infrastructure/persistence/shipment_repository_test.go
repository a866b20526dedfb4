package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/santabrisa/backend/internal/domain/shared"
	"github.com/santabrisa/backend/internal/domain/shipping"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupShipmentTestDB creates an in-memory SQLite database with shipment tables
func setupShipmentTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&shipping.Shipment{}, &shipping.ShipmentLine{}))
	return db
}

func buildTestShipment(t *testing.T) *shipping.Shipment {
	t.Helper()

	shipment := shipping.NewShipment(uuid.New(), uuid.New(), shipping.ModeParcel)
	shipment.Lines = []shipping.ShipmentLine{
		{
			ID:         uuid.New(),
			ShipmentID: shipment.ID,
			SKU:        "SB-750",
			Name:       "Santa Brisa 750ml",
			Qty:        decimal.NewFromInt(6),
			UOM:        "bottle",
		},
	}
	return shipment
}

func TestGormShipmentRepository_SaveAndFind(t *testing.T) {
	t.Run("round-trips a shipment with lines", func(t *testing.T) {
		repo := NewGormShipmentRepository(setupShipmentTestDB(t))
		ctx := context.Background()

		shipment := buildTestShipment(t)
		require.NoError(t, repo.Save(ctx, shipment))

		stored, err := repo.FindByID(ctx, shipment.ID)
		require.NoError(t, err)
		assert.Equal(t, shipping.StatusPending, stored.Status)
		assert.Equal(t, shipping.ModeParcel, stored.Mode)
		require.Len(t, stored.Lines, 1)
		assert.Equal(t, "SB-750", stored.Lines[0].SKU)
	})

	t.Run("finds by order id", func(t *testing.T) {
		repo := NewGormShipmentRepository(setupShipmentTestDB(t))
		ctx := context.Background()

		shipment := buildTestShipment(t)
		require.NoError(t, repo.Save(ctx, shipment))

		stored, err := repo.FindByOrderID(ctx, shipment.OrderID)
		require.NoError(t, err)
		assert.Equal(t, shipment.ID, stored.ID)

		_, err = repo.FindByOrderID(ctx, uuid.New())
		assert.Equal(t, shared.ErrNotFound, err)
	})

	t.Run("finds by tracking code", func(t *testing.T) {
		repo := NewGormShipmentRepository(setupShipmentTestDB(t))
		ctx := context.Background()

		shipment := buildTestShipment(t)
		shipment.TrackingCode = "SC123456789NL"
		require.NoError(t, repo.Save(ctx, shipment))

		stored, err := repo.FindByTrackingCode(ctx, "SC123456789NL")
		require.NoError(t, err)
		assert.Equal(t, shipment.ID, stored.ID)
	})
}

func TestGormShipmentRepository_Patch(t *testing.T) {
	t.Run("merge keeps concurrently written fields", func(t *testing.T) {
		repo := NewGormShipmentRepository(setupShipmentTestDB(t))
		ctx := context.Background()

		shipment := buildTestShipment(t)
		require.NoError(t, repo.Save(ctx, shipment))

		carrier := "sendcloud"
		weight := 7.2
		require.NoError(t, repo.Patch(ctx, shipment.ID, shipping.ShipmentPatch{
			Carrier:  &carrier,
			WeightKg: &weight,
		}))

		label := "https://docs.example.com/labels/abc.pdf"
		require.NoError(t, repo.Patch(ctx, shipment.ID, shipping.ShipmentPatch{
			LabelURL: &label,
		}))

		stored, err := repo.FindByID(ctx, shipment.ID)
		require.NoError(t, err)
		assert.Equal(t, "sendcloud", stored.Carrier)
		assert.Equal(t, 7.2, stored.WeightKg)
		assert.Equal(t, label, stored.LabelURL)
	})

	t.Run("returns ErrNotFound for unknown shipment", func(t *testing.T) {
		repo := NewGormShipmentRepository(setupShipmentTestDB(t))

		ok := true
		err := repo.Patch(context.Background(), uuid.New(), shipping.ShipmentPatch{VisualOK: &ok})

		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestGormShipmentRepository_UpdateLines(t *testing.T) {
	t.Run("replaces stored lines with lot assignments", func(t *testing.T) {
		repo := NewGormShipmentRepository(setupShipmentTestDB(t))
		ctx := context.Background()

		shipment := buildTestShipment(t)
		require.NoError(t, repo.Save(ctx, shipment))

		shipment.Lines[0].LotNumber = "L2026-014"
		require.NoError(t, repo.UpdateLines(ctx, shipment))

		stored, err := repo.FindByID(ctx, shipment.ID)
		require.NoError(t, err)
		require.Len(t, stored.Lines, 1)
		assert.Equal(t, "L2026-014", stored.Lines[0].LotNumber)
	})
}
