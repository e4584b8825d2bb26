package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"food-delivery/models"
)

const courierColumns = `id, national_id, name, phone, email, status, daily_km,
	weekday_rate::text, holiday_rate::text, warnings, complaints, password_hash,
	card_number, telegram_chat_id, created_at`

func scanCourier(row pgx.Row) (*models.Courier, error) {
	var (
		c                models.Courier
		weekday, holiday string
	)
	err := row.Scan(&c.ID, &c.NationalID, &c.Name, &c.Phone, &c.Email, &c.Status, &c.DailyKm,
		&weekday, &holiday, &c.Warnings, &c.Complaints, &c.PasswordHash,
		&c.CardNumber, &c.TelegramChatID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if c.WeekdayRate, err = parseMoney(weekday); err != nil {
		return nil, err
	}
	if c.HolidayRate, err = parseMoney(holiday); err != nil {
		return nil, err
	}
	if c.Complaints == nil {
		c.Complaints = []string{}
	}
	return &c, nil
}

func (s *Store) CreateCourier(ctx context.Context, c *models.Courier) error {
	complaints := c.Complaints
	if complaints == nil {
		complaints = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO couriers (
			id, national_id, name, phone, email, status, daily_km,
			weekday_rate, holiday_rate, warnings, complaints, password_hash,
			card_number, telegram_chat_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9::numeric, $10, $11, $12, $13, $14, $15)`,
		c.ID, c.NationalID, c.Name, c.Phone, c.Email, c.Status, c.DailyKm,
		c.WeekdayRate.String(), c.HolidayRate.String(), c.Warnings, complaints, c.PasswordHash,
		c.CardNumber, c.TelegramChatID, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert courier: %w", mapErr(err))
	}
	return nil
}

func (s *Store) GetCourier(ctx context.Context, id string) (*models.Courier, error) {
	return scanCourier(s.pool.QueryRow(ctx, `SELECT `+courierColumns+` FROM couriers WHERE id = $1`, id))
}

func (s *Store) GetCourierByEmail(ctx context.Context, email string) (*models.Courier, error) {
	return scanCourier(s.pool.QueryRow(ctx, `SELECT `+courierColumns+` FROM couriers WHERE email = $1`, email))
}

func (s *Store) ListCouriers(ctx context.Context) ([]models.Courier, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+courierColumns+` FROM couriers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Courier
	for rows.Next() {
		c, err := scanCourier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCourier(ctx context.Context, c *models.Courier) error {
	return updateCourier(ctx, s.pool, c)
}

func updateCourier(ctx context.Context, q querier, c *models.Courier) error {
	complaints := c.Complaints
	if complaints == nil {
		complaints = []string{}
	}
	tag, err := q.Exec(ctx, `
		UPDATE couriers SET
			national_id = $2, name = $3, phone = $4, email = $5, status = $6, daily_km = $7,
			weekday_rate = $8::numeric, holiday_rate = $9::numeric, warnings = $10, complaints = $11,
			password_hash = $12, card_number = $13, telegram_chat_id = $14
		WHERE id = $1`,
		c.ID, c.NationalID, c.Name, c.Phone, c.Email, c.Status, c.DailyKm,
		c.WeekdayRate.String(), c.HolidayRate.String(), c.Warnings, complaints,
		c.PasswordHash, c.CardNumber, c.TelegramChatID,
	)
	if err != nil {
		return fmt.Errorf("update courier: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update courier %s: no rows", c.ID)
	}
	return nil
}
