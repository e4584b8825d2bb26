package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-delivery/models"
)

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.CreateClient(ctx, &models.Client{ID: "c1", Email: "ana@example.com", Status: models.ClientStatusActive, PasswordHash: "h"}))
	require.NoError(t, s.CreateCourier(ctx, &models.Courier{ID: "k1", Email: "kike@example.com", Status: models.CourierStatusAvailable, WeekdayRate: decimal.NewFromInt(350)}))
	require.NoError(t, s.CreateRestaurant(ctx, &models.Restaurant{ID: "r1", LegalID: "3-101", Combos: []models.Combo{{Number: 1, Name: "Casado", Price: decimal.RequireFromString("4500.50")}}}))

	courierID := "k1"
	busy := models.Courier{ID: "k1", Email: "kike@example.com", Status: models.CourierStatusBusy, WeekdayRate: decimal.NewFromInt(350)}
	o := &models.Order{ID: "o1", ClientID: "c1", RestaurantID: "r1", CourierID: &courierID, Status: models.OrderStatusInPreparation, Total: decimal.RequireFromString("100.10"), CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateOrder(ctx, o, &busy))

	for _, name := range []string{clientsFile, couriersFile, restaurantsFile, ordersFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	reopened, err := Open(dir)
	require.NoError(t, err)

	c, err := reopened.GetClientByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "h", c.PasswordHash)

	k, err := reopened.GetCourier(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, models.CourierStatusBusy, k.Status)

	r, err := reopened.GetRestaurantByLegalID(ctx, "3-101")
	require.NoError(t, err)
	require.Len(t, r.Combos, 1)
	assert.True(t, r.Combos[0].Price.Equal(decimal.RequireFromString("4500.5")))

	got, err := reopened.GetOrder(ctx, "o1")
	require.NoError(t, err)
	require.NotNil(t, got.CourierID)
	assert.Equal(t, "k1", *got.CourierID)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("100.1")))
}

func TestStore_MissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	c, err := s.GetClient(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, c)
	k, err := s.GetCourierByEmail(ctx, "nope@x.com")
	assert.NoError(t, err)
	assert.Nil(t, k)
	o, err := s.GetOrder(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, o)

	assert.Error(t, s.UpdateClient(ctx, &models.Client{ID: "nope"}))
	assert.Error(t, s.UpdateOrder(ctx, &models.Order{ID: "nope"}, nil))
}

func TestStore_Duplicate(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.CreateClient(ctx, &models.Client{ID: "c1", Email: "ana@x.com"}))
	require.NoError(t, s.CreateCourier(ctx, &models.Courier{ID: "k1", Email: "kike@x.com"}))
	require.NoError(t, s.CreateRestaurant(ctx, &models.Restaurant{ID: "r1", LegalID: "3-101"}))

	tests := []struct {
		name   string
		create func() error
	}{
		{"client id", func() error { return s.CreateClient(ctx, &models.Client{ID: "c1", Email: "other@x.com"}) }},
		{"client email", func() error { return s.CreateClient(ctx, &models.Client{ID: "c2", Email: "ana@x.com"}) }},
		{"courier email", func() error { return s.CreateCourier(ctx, &models.Courier{ID: "k2", Email: "kike@x.com"}) }},
		{"restaurant legal id", func() error { return s.CreateRestaurant(ctx, &models.Restaurant{ID: "r2", LegalID: "3-101"}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.create()
			assert.ErrorIs(t, err, ErrDuplicate)
			assert.ErrorIs(t, err, models.ErrDuplicate)
		})
	}

	c, err := s.GetClientByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
	c2, err := s.GetClient(ctx, "c2")
	require.NoError(t, err)
	assert.Nil(t, c2)
}

func TestStore_OrderWriteFailureRestoresCourier(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.CreateCourier(ctx, &models.Courier{ID: "k1", Email: "kike@x.com", Status: models.CourierStatusAvailable}))

	// A directory where the orders file belongs makes the rename fail.
	blocker := filepath.Join(dir, ordersFile)
	require.NoError(t, os.Mkdir(blocker, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blocker, "keep"), []byte("x"), 0o644))

	k1 := "k1"
	busy := models.Courier{ID: "k1", Email: "kike@x.com", Status: models.CourierStatusBusy}
	err = s.CreateOrder(ctx, &models.Order{ID: "o1", CourierID: &k1, Status: models.OrderStatusInPreparation}, &busy)
	require.Error(t, err)

	k, err := s.GetCourier(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, models.CourierStatusAvailable, k.Status)
	o, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Nil(t, o)

	require.NoError(t, os.RemoveAll(blocker))
	reopened, err := Open(dir)
	require.NoError(t, err)
	k, err = reopened.GetCourier(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, models.CourierStatusAvailable, k.Status, "courier file restored on disk")
}

func TestStore_UpdateOrderFailureRestoresCourier(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	k1 := "k1"
	require.NoError(t, s.CreateCourier(ctx, &models.Courier{ID: "k1", Email: "kike@x.com", Status: models.CourierStatusBusy}))
	require.NoError(t, s.CreateOrder(ctx, &models.Order{ID: "o1", CourierID: &k1, Status: models.OrderStatusInTransit}, nil))

	blocker := filepath.Join(dir, ordersFile)
	require.NoError(t, os.Remove(blocker))
	require.NoError(t, os.Mkdir(blocker, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blocker, "keep"), []byte("x"), 0o644))

	released := models.Courier{ID: "k1", Email: "kike@x.com", Status: models.CourierStatusAvailable, DailyKm: 4}
	err = s.UpdateOrder(ctx, &models.Order{ID: "o1", CourierID: &k1, Status: models.OrderStatusDelivered}, &released)
	require.Error(t, err)

	k, err := s.GetCourier(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, models.CourierStatusBusy, k.Status)
	assert.Zero(t, k.DailyKm)
	o, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInTransit, o.Status)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.CreateCourier(ctx, &models.Courier{ID: "k1", Complaints: []string{"late"}}))

	k, err := s.GetCourier(ctx, "k1")
	require.NoError(t, err)
	k.Complaints[0] = "changed"
	k.Status = models.CourierStatusInactive

	again, err := s.GetCourier(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []string{"late"}, again.Complaints)
	assert.Empty(t, again.Status)
}

func TestStore_ListOrdersFilter(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	k1 := "k1"
	require.NoError(t, s.CreateOrder(ctx, &models.Order{ID: "o1", ClientID: "c1", RestaurantID: "r1", CourierID: &k1, Status: models.OrderStatusDelivered}, nil))
	require.NoError(t, s.CreateOrder(ctx, &models.Order{ID: "o2", ClientID: "c2", RestaurantID: "r1", Status: models.OrderStatusInTransit}, nil))

	all, err := s.ListOrders(ctx, models.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byCourier, err := s.ListOrders(ctx, models.OrderFilter{CourierID: "k1"})
	require.NoError(t, err)
	require.Len(t, byCourier, 1)
	assert.Equal(t, "o1", byCourier[0].ID)

	none, err := s.ListOrders(ctx, models.OrderFilter{ClientID: "c1", Status: models.OrderStatusInTransit})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOpen_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ordersFile), []byte("{not json"), 0o644))
	_, err := Open(dir)
	assert.Error(t, err)
}
