package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"food-delivery/models"
)

// pickCourier returns the available courier with the fewest km today (ties by id), or nil.
func pickCourier(couriers []models.Courier) *models.Courier {
	var best *models.Courier
	for i := range couriers {
		c := &couriers[i]
		if c.Status != models.CourierStatusAvailable {
			continue
		}
		if best == nil || c.DailyKm < best.DailyKm || (c.DailyKm == best.DailyKm && c.ID < best.ID) {
			best = c
		}
	}
	return best
}

// orderDistance resolves the delivery distance from the input: explicit
// km wins, otherwise restaurant and delivery coordinates are required.
func orderDistance(r *models.Restaurant, input models.CreateOrderInput) (float64, error) {
	if input.DistanceKm > 0 {
		return input.DistanceKm, nil
	}
	if input.DistanceKm < 0 {
		return 0, fmt.Errorf("%w: distance must be > 0", ErrInvalidInput)
	}
	if r.Lat == nil || r.Lon == nil || input.Lat == nil || input.Lon == nil {
		return 0, fmt.Errorf("%w: distance_km or delivery coordinates are required", ErrInvalidInput)
	}
	d := HaversineDistanceKm(*r.Lat, *r.Lon, *input.Lat, *input.Lon)
	if d <= 0 {
		return 0, fmt.Errorf("%w: delivery point equals restaurant location", ErrInvalidInput)
	}
	return d, nil
}

// CreateOrder prices the selected combos, assigns the least loaded
// available courier and stores the order in preparation.
func (s *Service) CreateOrder(ctx context.Context, input models.CreateOrderInput) (*models.Order, error) {
	client, err := s.store.GetClient(ctx, input.ClientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("client %s: %w", input.ClientID, ErrNotFound)
	}
	if client.Status != models.ClientStatusActive {
		return nil, fmt.Errorf("client %s is suspended: %w", client.ID, ErrForbidden)
	}
	restaurant, err := s.store.GetRestaurant(ctx, input.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	if restaurant == nil {
		return nil, fmt.Errorf("restaurant %s: %w", input.RestaurantID, ErrNotFound)
	}
	distance, err := orderDistance(restaurant, input)
	if err != nil {
		return nil, err
	}
	// Validate the menu selection before touching couriers.
	if _, _, err := BuildItems(restaurant, input.Items); err != nil {
		return nil, err
	}

	s.mu.Lock()
	o, err := s.assignAndStore(ctx, client, restaurant, input.Items, distance)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	// Notifiers run outside the lock; a slow chat API must not stall assignment.
	s.notifier.OrderCreated(ctx, o)
	return o, nil
}

// assignAndStore picks a courier, prices the order and persists both.
// Callers hold s.mu.
func (s *Service) assignAndStore(ctx context.Context, client *models.Client, restaurant *models.Restaurant, items []models.ComboSelection, distance float64) (*models.Order, error) {
	couriers, err := s.store.ListCouriers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list couriers: %w", err)
	}
	courier := pickCourier(couriers)
	if courier == nil {
		return nil, ErrNoCourierAvailable
	}

	now := s.now().UTC()
	quote, err := PriceOrder(restaurant, items, distance, courier, now.In(s.location()), s.cfg.Holidays, s.vatRate())
	if err != nil {
		return nil, err
	}
	courierID := courier.ID
	o := &models.Order{
		ID:            uuid.NewString(),
		ClientID:      client.ID,
		RestaurantID:  restaurant.ID,
		CourierID:     &courierID,
		Items:         quote.Items,
		Subtotal:      quote.Subtotal,
		DistanceKm:    distance,
		Holiday:       quote.Holiday,
		TransportCost: quote.TransportCost,
		VAT:           quote.VAT,
		Total:         quote.Total,
		Status:        models.OrderStatusInPreparation,
		CreatedAt:     now,
	}
	courier.Status = models.CourierStatusBusy
	if err := s.store.CreateOrder(ctx, o, courier); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"order_id":      o.ID,
		"client_id":     o.ClientID,
		"restaurant_id": o.RestaurantID,
		"courier_id":    courierID,
		"total":         o.Total.String(),
	}).Info("order created")
	return o, nil
}

func (s *Service) location() *time.Location {
	if s.cfg.Location == nil {
		return time.UTC
	}
	return s.cfg.Location
}

func (s *Service) vatRate() decimal.Decimal {
	if s.cfg.VATRate.IsZero() {
		return DefaultVATRate
	}
	return s.cfg.VATRate
}

// canTransition checks that actor may move order o to status to.
func canTransition(actor Actor, o *models.Order, to string) bool {
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleCourier:
		return o.CourierID != nil && *o.CourierID == actor.ID &&
			(to == models.OrderStatusInTransit || to == models.OrderStatusDelivered)
	case RoleRestaurant:
		return o.RestaurantID == actor.ID &&
			(to == models.OrderStatusInTransit || to == models.OrderStatusSuspended)
	}
	return false
}

// UpdateOrderStatus moves an order along its lifecycle. Delivering or
// suspending an order releases its courier; delivery also books the
// distance on the courier's daily km.
func (s *Service) UpdateOrderStatus(ctx context.Context, actor Actor, orderID, newStatus string) (*models.Order, error) {
	if !IsKnownOrderStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, newStatus)
	}

	s.mu.Lock()
	o, from, err := s.transition(ctx, actor, orderID, newStatus)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.notifier.OrderStatusChanged(ctx, o, from)
	return o, nil
}

// transition applies one status change and returns the order with its
// previous status. Callers hold s.mu.
func (s *Service) transition(ctx context.Context, actor Actor, orderID, newStatus string) (*models.Order, string, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, "", fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, "", fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if !canTransition(actor, o, newStatus) {
		return nil, "", fmt.Errorf("%s %s may not set order %s to %s: %w", actor.Role, actor.ID, o.ID, newStatus, ErrForbidden)
	}
	from := o.Status
	if !ValidStatusTransition(from, newStatus) {
		return nil, "", fmt.Errorf("%w from %q to %q", ErrInvalidTransition, from, newStatus)
	}

	var courier *models.Courier
	if newStatus == models.OrderStatusDelivered || newStatus == models.OrderStatusSuspended {
		if o.CourierID != nil {
			courier, err = s.store.GetCourier(ctx, *o.CourierID)
			if err != nil {
				return nil, "", fmt.Errorf("get courier: %w", err)
			}
		}
		if courier != nil {
			if courier.Status == models.CourierStatusBusy {
				courier.Status = models.CourierStatusAvailable
			}
			if newStatus == models.OrderStatusDelivered {
				courier.DailyKm += o.DistanceKm
			}
		}
	}

	o.Status = newStatus
	if newStatus == models.OrderStatusDelivered {
		at := s.now().UTC()
		o.DeliveredAt = &at
	}
	if err := s.store.UpdateOrder(ctx, o, courier); err != nil {
		return nil, "", fmt.Errorf("update order: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"order_id": o.ID,
		"from":     from,
		"to":       newStatus,
		"actor":    actor.Role,
	}).Info("order status changed")
	return o, from, nil
}

// GetOrder returns an order visible to actor.
func (s *Service) GetOrder(ctx context.Context, actor Actor, id string) (*models.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if !canView(actor, o) {
		return nil, fmt.Errorf("order %s: %w", id, ErrForbidden)
	}
	return o, nil
}

func canView(actor Actor, o *models.Order) bool {
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleClient:
		return o.ClientID == actor.ID
	case RoleRestaurant:
		return o.RestaurantID == actor.ID
	case RoleCourier:
		return o.CourierID != nil && *o.CourierID == actor.ID
	}
	return false
}

// ListOrders returns orders matching f, newest first. Non-admin actors
// only ever see their own orders.
func (s *Service) ListOrders(ctx context.Context, actor Actor, f models.OrderFilter) ([]models.Order, error) {
	switch actor.Role {
	case RoleAdmin:
	case RoleClient:
		f.ClientID = actor.ID
	case RoleRestaurant:
		f.RestaurantID = actor.ID
	case RoleCourier:
		f.CourierID = actor.ID
	default:
		return nil, ErrForbidden
	}
	if f.Status != "" && !IsKnownOrderStatus(f.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	orders, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// CourierActiveOrders returns the courier's orders still in preparation or in transit.
func (s *Service) CourierActiveOrders(ctx context.Context, courierID string) ([]models.Order, error) {
	orders, err := s.store.ListOrders(ctx, models.OrderFilter{CourierID: courierID})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	active := orders[:0]
	for _, o := range orders {
		if o.Status == models.OrderStatusInPreparation || o.Status == models.OrderStatusInTransit {
			active = append(active, o)
		}
	}
	return active, nil
}
