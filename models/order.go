package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusInPreparation = "in_preparation"
	OrderStatusInTransit     = "in_transit"
	OrderStatusSuspended     = "suspended"
	OrderStatusDelivered     = "delivered"
)

// OrderItem is one combo line of an order. Name and price are snapshots
// taken when the order was placed.
type OrderItem struct {
	ComboNumber int             `json:"combo_number"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Order is a pedido placed by a client against a restaurant menu.
type Order struct {
	ID            string          `json:"id"`
	ClientID      string          `json:"client_id"`
	RestaurantID  string          `json:"restaurant_id"`
	CourierID     *string         `json:"courier_id,omitempty"`
	Items         []OrderItem     `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DistanceKm    float64         `json:"distance_km"`
	Holiday       bool            `json:"holiday"`
	TransportCost decimal.Decimal `json:"transport_cost"`
	VAT           decimal.Decimal `json:"vat"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	Rated         bool            `json:"rated"`
	CreatedAt     time.Time       `json:"created_at"`
	DeliveredAt   *time.Time      `json:"delivered_at,omitempty"`
}

type ComboSelection struct {
	ComboNumber int `json:"combo_number"`
	Quantity    int `json:"quantity"`
}

type CreateOrderInput struct {
	ClientID     string           `json:"client_id"`
	RestaurantID string           `json:"restaurant_id"`
	Items        []ComboSelection `json:"items"`
	DistanceKm   float64          `json:"distance_km"`
	Lat          *float64         `json:"lat"` // delivery point, used when distance_km is 0
	Lon          *float64         `json:"lon"`
}

// OrderFilter narrows order listings; empty fields match everything.
type OrderFilter struct {
	ClientID     string
	RestaurantID string
	CourierID    string
	Status       string
}

// Match reports whether o satisfies every non-empty field of f.
func (f OrderFilter) Match(o *Order) bool {
	if f.ClientID != "" && o.ClientID != f.ClientID {
		return false
	}
	if f.RestaurantID != "" && o.RestaurantID != f.RestaurantID {
		return false
	}
	if f.CourierID != "" && (o.CourierID == nil || *o.CourierID != f.CourierID) {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	return true
}

type FeedbackInput struct {
	ClientID string `json:"client_id"`
	Positive bool   `json:"positive"`
	Comment  string `json:"comment"`
}
