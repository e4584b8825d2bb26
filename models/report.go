package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RestaurantRevenue struct {
	RestaurantID   string          `json:"restaurant_id"`
	RestaurantName string          `json:"restaurant_name"`
	OrdersCount    int             `json:"orders_count"`
	Total          decimal.Decimal `json:"total"`
}

// RevenueReport aggregates delivered orders created in [From, To).
type RevenueReport struct {
	From          time.Time           `json:"from"`
	To            time.Time           `json:"to"`
	OrdersCount   int                 `json:"orders_count"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	TransportCost decimal.Decimal     `json:"transport_cost"`
	VAT           decimal.Decimal     `json:"vat"`
	Total         decimal.Decimal     `json:"total"`
	ByRestaurant  []RestaurantRevenue `json:"by_restaurant"`
}
