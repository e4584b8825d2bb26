package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-delivery/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testRestaurant() *models.Restaurant {
	return &models.Restaurant{
		ID:   "r-1",
		Name: "Soda Tica",
		Combos: []models.Combo{
			{Number: 1, Name: "Casado", Price: dec("4500")},
			{Number: 2, Name: "Gallo pinto", Price: dec("3000")},
			{Number: 9, Name: "Arroz con pollo", Price: dec("3999.99")},
		},
	}
}

func TestIsHoliday(t *testing.T) {
	holidays := []time.Time{time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)}
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"weekday", time.Date(2026, 9, 16, 12, 0, 0, 0, time.UTC), false},
		{"configured holiday", time.Date(2026, 9, 15, 20, 30, 0, 0, time.UTC), true},
		{"sunday", time.Date(2026, 9, 20, 9, 0, 0, 0, time.UTC), true},
		{"saturday", time.Date(2026, 9, 19, 9, 0, 0, 0, time.UTC), false},
		{"same day other year", time.Date(2027, 9, 15, 9, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHoliday(tt.at, holidays))
		})
	}
}

func TestCalcTransportCost(t *testing.T) {
	tests := []struct {
		km   float64
		rate string
		want string
	}{
		{5, "350", "1750"},
		{2.5, "350", "875"},
		{1.333, "100", "133.3"},
		{0.105, "1", "0.11"},
	}
	for _, tt := range tests {
		got := CalcTransportCost(tt.km, dec(tt.rate))
		assert.True(t, got.Equal(dec(tt.want)), "CalcTransportCost(%v, %s) = %s, want %s", tt.km, tt.rate, got, tt.want)
	}
}

func TestCalcVAT(t *testing.T) {
	assert.True(t, CalcVAT(dec("10000"), DefaultVATRate).Equal(dec("1300")))
	assert.True(t, CalcVAT(dec("3999.99"), DefaultVATRate).Equal(dec("520")))
}

func TestBuildItems(t *testing.T) {
	r := testRestaurant()
	items, subtotal, err := BuildItems(r, []models.ComboSelection{
		{ComboNumber: 9, Quantity: 1},
		{ComboNumber: 1, Quantity: 2},
		{ComboNumber: 9, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].ComboNumber)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[0].LineTotal.Equal(dec("9000")))
	assert.Equal(t, "Arroz con pollo", items[1].Name)
	assert.Equal(t, 2, items[1].Quantity)
	assert.True(t, subtotal.Equal(dec("16999.98")))
}

func TestBuildItems_RoundsToCents(t *testing.T) {
	// Menus stored before prices were validated may carry sub-cent values.
	r := &models.Restaurant{Combos: []models.Combo{{Number: 5, Name: "Empanada", Price: dec("3.555")}}}
	items, subtotal, err := BuildItems(r, []models.ComboSelection{{ComboNumber: 5, Quantity: 3}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].UnitPrice.Equal(dec("3.56")))
	assert.True(t, items[0].LineTotal.Equal(dec("10.68")))
	assert.True(t, subtotal.Equal(dec("10.68")))
	assert.True(t, IsCents(subtotal))
}

func TestBuildItems_Invalid(t *testing.T) {
	r := testRestaurant()
	tests := []struct {
		name string
		sel  []models.ComboSelection
	}{
		{"empty", nil},
		{"unknown combo", []models.ComboSelection{{ComboNumber: 5, Quantity: 1}}},
		{"zero quantity", []models.ComboSelection{{ComboNumber: 1, Quantity: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := BuildItems(r, tt.sel)
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}

func TestPriceOrder(t *testing.T) {
	r := testRestaurant()
	courier := &models.Courier{WeekdayRate: dec("350"), HolidayRate: dec("500")}
	sel := []models.ComboSelection{{ComboNumber: 1, Quantity: 2}}

	weekday := time.Date(2026, 9, 16, 12, 0, 0, 0, time.UTC)
	q, err := PriceOrder(r, sel, 4, courier, weekday, nil, DefaultVATRate)
	require.NoError(t, err)
	assert.False(t, q.Holiday)
	assert.True(t, q.Subtotal.Equal(dec("9000")))
	assert.True(t, q.TransportCost.Equal(dec("1400")))
	assert.True(t, q.VAT.Equal(dec("1170")))
	assert.True(t, q.Total.Equal(dec("11570")))
	assert.True(t, q.Total.Equal(q.Subtotal.Add(q.TransportCost).Add(q.VAT)))

	sunday := time.Date(2026, 9, 20, 12, 0, 0, 0, time.UTC)
	q, err = PriceOrder(r, sel, 4, courier, sunday, nil, DefaultVATRate)
	require.NoError(t, err)
	assert.True(t, q.Holiday)
	assert.True(t, q.TransportCost.Equal(dec("2000")))

	_, err = PriceOrder(r, sel, 0, courier, weekday, nil, DefaultVATRate)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHaversineDistanceKm(t *testing.T) {
	// San José to Heredia, Costa Rica: about 8 km.
	d := HaversineDistanceKm(9.9281, -84.0907, 9.9986, -84.1165)
	assert.InDelta(t, 8.3, d, 0.5)
	assert.Equal(t, 0.0, HaversineDistanceKm(9.9, -84.1, 9.9, -84.1))
}
