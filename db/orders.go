package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"food-delivery/models"
)

const orderColumns = `id, client_id, restaurant_id, courier_id, subtotal::text, distance_km, holiday,
	transport_cost::text, vat::text, total::text, status, rated, created_at, delivered_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		o                                models.Order
		subtotal, transport, vat, total string
	)
	err := row.Scan(&o.ID, &o.ClientID, &o.RestaurantID, &o.CourierID, &subtotal, &o.DistanceKm, &o.Holiday,
		&transport, &vat, &total, &o.Status, &o.Rated, &o.CreatedAt, &o.DeliveredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if o.Subtotal, err = parseMoney(subtotal); err != nil {
		return nil, err
	}
	if o.TransportCost, err = parseMoney(transport); err != nil {
		return nil, err
	}
	if o.VAT, err = parseMoney(vat); err != nil {
		return nil, err
	}
	if o.Total, err = parseMoney(total); err != nil {
		return nil, err
	}
	o.Items = []models.OrderItem{}
	return &o, nil
}

func (s *Store) loadItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]*models.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}
	rows, err := s.pool.Query(ctx, `
		SELECT order_id, combo_number, name, unit_price::text, quantity, line_total::text
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, combo_number`, ids)
	if err != nil {
		return fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID, unit, line string
			it                  models.OrderItem
		)
		if err := rows.Scan(&orderID, &it.ComboNumber, &it.Name, &unit, &it.Quantity, &line); err != nil {
			return err
		}
		if it.UnitPrice, err = parseMoney(unit); err != nil {
			return err
		}
		if it.LineTotal, err = parseMoney(line); err != nil {
			return err
		}
		if o := byID[orderID]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

// CreateOrder inserts the order with its items and, when given, the
// courier update in one transaction.
func (s *Store) CreateOrder(ctx context.Context, o *models.Order, courier *models.Courier) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO orders (
				id, client_id, restaurant_id, courier_id, subtotal, distance_km, holiday,
				transport_cost, vat, total, status, rated, created_at, delivered_at
			) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8::numeric, $9::numeric, $10::numeric, $11, $12, $13, $14)`,
			o.ID, o.ClientID, o.RestaurantID, o.CourierID, o.Subtotal.String(), o.DistanceKm, o.Holiday,
			o.TransportCost.String(), o.VAT.String(), o.Total.String(), o.Status, o.Rated, o.CreatedAt, o.DeliveredAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", mapErr(err))
		}
		for _, it := range o.Items {
			_, err := tx.Exec(ctx, `
				INSERT INTO order_items (order_id, combo_number, name, unit_price, quantity, line_total)
				VALUES ($1, $2, $3, $4::numeric, $5, $6::numeric)`,
				o.ID, it.ComboNumber, it.Name, it.UnitPrice.String(), it.Quantity, it.LineTotal.String(),
			)
			if err != nil {
				return fmt.Errorf("insert order item %d: %w", it.ComboNumber, err)
			}
		}
		if courier != nil {
			return updateCourier(ctx, tx, courier)
		}
		return nil
	})
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil || o == nil {
		return o, err
	}
	if err := s.loadItems(ctx, []*models.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	var (
		where []string
		args  []any
	)
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("client_id", f.ClientID)
	add("restaurant_id", f.RestaurantID)
	add("courier_id", f.CourierID)
	add("status", f.Status)

	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	var list []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, list); err != nil {
		return nil, err
	}
	out := make([]models.Order, len(list))
	for i, o := range list {
		out[i] = *o
	}
	return out, nil
}

// UpdateOrder saves the mutable order fields and, when given, the courier
// in one transaction. Items are immutable after creation.
func (s *Store) UpdateOrder(ctx context.Context, o *models.Order, courier *models.Courier) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders SET courier_id = $2, status = $3, rated = $4, delivered_at = $5
			WHERE id = $1`,
			o.ID, o.CourierID, o.Status, o.Rated, o.DeliveredAt,
		)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("update order %s: no rows", o.ID)
		}
		if courier != nil {
			return updateCourier(ctx, tx, courier)
		}
		return nil
	})
}
