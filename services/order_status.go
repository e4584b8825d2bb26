package services

import (
	"fmt"

	"food-delivery/models"
)

var statusTransitions = map[string][]string{
	models.OrderStatusInPreparation: {models.OrderStatusInTransit, models.OrderStatusSuspended},
	models.OrderStatusInTransit:     {models.OrderStatusDelivered, models.OrderStatusSuspended},
}

// ValidStatusTransition reports whether an order may move from one status to another.
// Delivered and suspended orders are final.
func ValidStatusTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsKnownOrderStatus reports whether s is one of the order statuses.
func IsKnownOrderStatus(s string) bool {
	switch s {
	case models.OrderStatusInPreparation, models.OrderStatusInTransit,
		models.OrderStatusSuspended, models.OrderStatusDelivered:
		return true
	}
	return false
}

// StatusLabel is the customer facing label for an order status.
func StatusLabel(status string) string {
	switch status {
	case models.OrderStatusInPreparation:
		return "En preparación"
	case models.OrderStatusInTransit:
		return "En camino"
	case models.OrderStatusSuspended:
		return "Suspendido"
	case models.OrderStatusDelivered:
		return "Entregado"
	default:
		return status
	}
}

// ClientMessageForOrderStatus returns the notification text sent to the client when the order reaches status.
func ClientMessageForOrderStatus(o *models.Order, status string) string {
	switch status {
	case models.OrderStatusInPreparation:
		return fmt.Sprintf("🍽 Pedido %s recibido. Total: ₡%s. El restaurante lo está preparando.", shortID(o.ID), o.Total.StringFixed(2))
	case models.OrderStatusInTransit:
		return fmt.Sprintf("🛵 Pedido %s va en camino. Total: ₡%s.", shortID(o.ID), o.Total.StringFixed(2))
	case models.OrderStatusDelivered:
		return fmt.Sprintf("✅ Pedido %s entregado. ¡Buen provecho!", shortID(o.ID))
	case models.OrderStatusSuspended:
		return fmt.Sprintf("❌ Pedido %s fue suspendido.", shortID(o.ID))
	default:
		return fmt.Sprintf("Pedido %s: %s", shortID(o.ID), status)
	}
}

// AdminMessageForOrder returns the admin chat summary of an order.
func AdminMessageForOrder(o *models.Order) string {
	courier := "sin asignar"
	if o.CourierID != nil {
		courier = shortID(*o.CourierID)
	}
	text := fmt.Sprintf("Pedido %s\nRestaurante: %s\nRepartidor: %s\n", shortID(o.ID), shortID(o.RestaurantID), courier)
	for _, it := range o.Items {
		text += fmt.Sprintf("  Combo %d %s x%d = ₡%s\n", it.ComboNumber, it.Name, it.Quantity, it.LineTotal.StringFixed(2))
	}
	text += fmt.Sprintf("Subtotal: ₡%s\nTransporte (%.2f km): ₡%s\nIVA: ₡%s\nTotal: ₡%s\nEstado: %s",
		o.Subtotal.StringFixed(2), o.DistanceKm, o.TransportCost.StringFixed(2),
		o.VAT.StringFixed(2), o.Total.StringFixed(2), StatusLabel(o.Status))
	return text
}

func shortID(id string) string {
	if len(id) > 8 {
		return "#" + id[:8]
	}
	return "#" + id
}
