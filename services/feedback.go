package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"food-delivery/models"
)

// SubmitFeedback records the client's rating of a delivered order.
// Negative feedback adds a complaint and a warning (amonestación) to the
// courier; at the warning limit the courier becomes inactive.
func (s *Service) SubmitFeedback(ctx context.Context, orderID string, input models.FeedbackInput) (*models.Courier, error) {
	comment := strings.TrimSpace(input.Comment)
	if !input.Positive && comment == "" {
		return nil, fmt.Errorf("%w: a complaint needs a comment", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if o.ClientID != input.ClientID {
		return nil, fmt.Errorf("order %s belongs to another client: %w", orderID, ErrForbidden)
	}
	if o.Status != models.OrderStatusDelivered {
		return nil, fmt.Errorf("%w: only delivered orders can be rated", ErrInvalidInput)
	}
	if o.Rated {
		return nil, fmt.Errorf("order %s already rated: %w", orderID, ErrConflict)
	}
	if o.CourierID == nil {
		return nil, fmt.Errorf("%w: order has no courier", ErrInvalidInput)
	}
	courier, err := s.store.GetCourier(ctx, *o.CourierID)
	if err != nil {
		return nil, fmt.Errorf("get courier: %w", err)
	}
	if courier == nil {
		return nil, fmt.Errorf("courier %s: %w", *o.CourierID, ErrNotFound)
	}

	o.Rated = true
	if input.Positive {
		if err := s.store.UpdateOrder(ctx, o, nil); err != nil {
			return nil, fmt.Errorf("update order: %w", err)
		}
		return courier, nil
	}

	courier.Complaints = append(courier.Complaints, comment)
	courier.Warnings++
	if courier.Warnings >= s.maxWarnings() {
		courier.Status = models.CourierStatusInactive
	}
	if err := s.store.UpdateOrder(ctx, o, courier); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"order_id":   o.ID,
		"courier_id": courier.ID,
		"warnings":   courier.Warnings,
	}).Warn("complaint recorded against courier")
	return courier, nil
}
