package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"food-delivery/models"
)

const restaurantColumns = `id, legal_id, name, address, cuisine_type, password_hash, lat, lon, created_at`

func scanRestaurant(row pgx.Row) (*models.Restaurant, error) {
	var r models.Restaurant
	err := row.Scan(&r.ID, &r.LegalID, &r.Name, &r.Address, &r.CuisineType, &r.PasswordHash, &r.Lat, &r.Lon, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	r.Combos = []models.Combo{}
	return &r, nil
}

// loadCombos fills the menus of rs in one query.
func (s *Store) loadCombos(ctx context.Context, rs []*models.Restaurant) error {
	if len(rs) == 0 {
		return nil
	}
	ids := make([]string, len(rs))
	byID := make(map[string]*models.Restaurant, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
		byID[r.ID] = r
	}
	rows, err := s.pool.Query(ctx, `
		SELECT restaurant_id, number, name, price::text
		FROM combos
		WHERE restaurant_id = ANY($1)
		ORDER BY restaurant_id, number`, ids)
	if err != nil {
		return fmt.Errorf("select combos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			restaurantID, price string
			c                   models.Combo
		)
		if err := rows.Scan(&restaurantID, &c.Number, &c.Name, &price); err != nil {
			return err
		}
		if c.Price, err = parseMoney(price); err != nil {
			return err
		}
		if r := byID[restaurantID]; r != nil {
			r.Combos = append(r.Combos, c)
		}
	}
	return rows.Err()
}

func insertCombos(ctx context.Context, tx pgx.Tx, r *models.Restaurant) error {
	for _, c := range r.Combos {
		_, err := tx.Exec(ctx, `
			INSERT INTO combos (restaurant_id, number, name, price)
			VALUES ($1, $2, $3, $4::numeric)`,
			r.ID, c.Number, c.Name, c.Price.String(),
		)
		if err != nil {
			return fmt.Errorf("insert combo %d: %w", c.Number, mapErr(err))
		}
	}
	return nil
}

func (s *Store) CreateRestaurant(ctx context.Context, r *models.Restaurant) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO restaurants (`+restaurantColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			r.ID, r.LegalID, r.Name, r.Address, r.CuisineType, r.PasswordHash, r.Lat, r.Lon, r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert restaurant: %w", mapErr(err))
		}
		return insertCombos(ctx, tx, r)
	})
}

func (s *Store) getRestaurant(ctx context.Context, where string, arg any) (*models.Restaurant, error) {
	r, err := scanRestaurant(s.pool.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE `+where, arg))
	if err != nil || r == nil {
		return r, err
	}
	if err := s.loadCombos(ctx, []*models.Restaurant{r}); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	return s.getRestaurant(ctx, `id = $1`, id)
}

func (s *Store) GetRestaurantByLegalID(ctx context.Context, legalID string) (*models.Restaurant, error) {
	return s.getRestaurant(ctx, `legal_id = $1`, legalID)
}

func (s *Store) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+restaurantColumns+` FROM restaurants ORDER BY id`)
	if err != nil {
		return nil, err
	}
	var list []*models.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadCombos(ctx, list); err != nil {
		return nil, err
	}
	out := make([]models.Restaurant, len(list))
	for i, r := range list {
		out[i] = *r
	}
	return out, nil
}

// UpdateRestaurant rewrites the restaurant row and replaces its menu.
func (s *Store) UpdateRestaurant(ctx context.Context, r *models.Restaurant) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE restaurants SET
				legal_id = $2, name = $3, address = $4, cuisine_type = $5,
				password_hash = $6, lat = $7, lon = $8
			WHERE id = $1`,
			r.ID, r.LegalID, r.Name, r.Address, r.CuisineType, r.PasswordHash, r.Lat, r.Lon,
		)
		if err != nil {
			return fmt.Errorf("update restaurant: %w", mapErr(err))
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("update restaurant %s: no rows", r.ID)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM combos WHERE restaurant_id = $1`, r.ID); err != nil {
			return fmt.Errorf("delete combos: %w", err)
		}
		return insertCombos(ctx, tx, r)
	})
}
