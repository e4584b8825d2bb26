package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"food-delivery/models"
)

// DefaultVATRate is the 13% IVA applied to order subtotals.
var DefaultVATRate = decimal.RequireFromString("0.13")

// Quote is the priced breakdown of an order before it is stored.
type Quote struct {
	Items         []models.OrderItem
	Subtotal      decimal.Decimal
	Holiday       bool
	TransportCost decimal.Decimal
	VAT           decimal.Decimal
	Total         decimal.Decimal
}

// IsHoliday reports whether t falls on Sunday or on one of the configured holiday dates.
func IsHoliday(t time.Time, holidays []time.Time) bool {
	if t.Weekday() == time.Sunday {
		return true
	}
	y, m, d := t.Date()
	for _, h := range holidays {
		hy, hm, hd := h.Date()
		if y == hy && m == hm && d == hd {
			return true
		}
	}
	return false
}

// IsCents reports whether d is a whole number of cents.
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// CourierRate picks the courier's per-km rate for the given day type.
func CourierRate(c *models.Courier, holiday bool) decimal.Decimal {
	if holiday {
		return c.HolidayRate
	}
	return c.WeekdayRate
}

// CalcTransportCost returns distance × per-km rate, rounded to cents.
func CalcTransportCost(distanceKm float64, ratePerKm decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(distanceKm).Mul(ratePerKm).Round(2)
}

// CalcVAT returns subtotal × rate, rounded to cents.
func CalcVAT(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate).Round(2)
}

// BuildItems resolves combo selections against the restaurant menu.
// Repeated combo numbers are merged; output is ordered by combo number.
func BuildItems(r *models.Restaurant, selections []models.ComboSelection) ([]models.OrderItem, decimal.Decimal, error) {
	if len(selections) == 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: at least one combo is required", ErrInvalidInput)
	}
	qty := make(map[int]int)
	for _, sel := range selections {
		if sel.Quantity < 1 {
			return nil, decimal.Zero, fmt.Errorf("%w: combo %d quantity must be >= 1", ErrInvalidInput, sel.ComboNumber)
		}
		if r.Combo(sel.ComboNumber) == nil {
			return nil, decimal.Zero, fmt.Errorf("%w: restaurant has no combo %d", ErrInvalidInput, sel.ComboNumber)
		}
		qty[sel.ComboNumber] += sel.Quantity
	}
	numbers := make([]int, 0, len(qty))
	for n := range qty {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	items := make([]models.OrderItem, 0, len(numbers))
	subtotal := decimal.Zero
	for _, n := range numbers {
		c := r.Combo(n)
		price := c.Price.Round(2)
		line := price.Mul(decimal.NewFromInt(int64(qty[n]))).Round(2)
		items = append(items, models.OrderItem{
			ComboNumber: n,
			Name:        c.Name,
			UnitPrice:   price,
			Quantity:    qty[n],
			LineTotal:   line,
		})
		subtotal = subtotal.Add(line)
	}
	return items, subtotal.Round(2), nil
}

// PriceOrder computes subtotal, transport, VAT and total for an order
// delivered by courier on day at.
func PriceOrder(r *models.Restaurant, selections []models.ComboSelection, distanceKm float64, courier *models.Courier, at time.Time, holidays []time.Time, vatRate decimal.Decimal) (*Quote, error) {
	if distanceKm <= 0 {
		return nil, fmt.Errorf("%w: distance must be > 0", ErrInvalidInput)
	}
	items, subtotal, err := BuildItems(r, selections)
	if err != nil {
		return nil, err
	}
	holiday := IsHoliday(at, holidays)
	transport := CalcTransportCost(distanceKm, CourierRate(courier, holiday))
	vat := CalcVAT(subtotal, vatRate)
	return &Quote{
		Items:         items,
		Subtotal:      subtotal,
		Holiday:       holiday,
		TransportCost: transport,
		VAT:           vat,
		Total:         subtotal.Add(transport).Add(vat),
	}, nil
}

func HaversineDistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return math.Round(R*c*100) / 100
}
