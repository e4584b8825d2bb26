package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"food-delivery/models"
)

// RevenueReport aggregates delivered orders created in [from, to).
func (s *Service) RevenueReport(ctx context.Context, from, to time.Time) (*models.RevenueReport, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: report range is empty", ErrInvalidInput)
	}
	orders, err := s.store.ListOrders(ctx, models.OrderFilter{Status: models.OrderStatusDelivered})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	restaurants, err := s.store.ListRestaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	names := make(map[string]string, len(restaurants))
	for _, r := range restaurants {
		names[r.ID] = r.Name
	}

	rep := &models.RevenueReport{
		From:          from,
		To:            to,
		Subtotal:      decimal.Zero,
		TransportCost: decimal.Zero,
		VAT:           decimal.Zero,
		Total:         decimal.Zero,
		ByRestaurant:  []models.RestaurantRevenue{},
	}
	byRestaurant := make(map[string]*models.RestaurantRevenue)
	for _, o := range orders {
		if o.CreatedAt.Before(from) || !o.CreatedAt.Before(to) {
			continue
		}
		rep.OrdersCount++
		rep.Subtotal = rep.Subtotal.Add(o.Subtotal)
		rep.TransportCost = rep.TransportCost.Add(o.TransportCost)
		rep.VAT = rep.VAT.Add(o.VAT)
		rep.Total = rep.Total.Add(o.Total)

		rr, ok := byRestaurant[o.RestaurantID]
		if !ok {
			rr = &models.RestaurantRevenue{RestaurantID: o.RestaurantID, RestaurantName: names[o.RestaurantID], Total: decimal.Zero}
			byRestaurant[o.RestaurantID] = rr
		}
		rr.OrdersCount++
		rr.Total = rr.Total.Add(o.Total)
	}
	for _, rr := range byRestaurant {
		rep.ByRestaurant = append(rep.ByRestaurant, *rr)
	}
	sort.Slice(rep.ByRestaurant, func(i, j int) bool {
		a, b := rep.ByRestaurant[i], rep.ByRestaurant[j]
		if !a.Total.Equal(b.Total) {
			return a.Total.GreaterThan(b.Total)
		}
		return a.RestaurantID < b.RestaurantID
	})
	return rep, nil
}
