package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"food-delivery/models"
)

const clientColumns = `id, national_id, name, address, phone, email, status, password_hash, card_number, telegram_chat_id, created_at`

func scanClient(row pgx.Row) (*models.Client, error) {
	var c models.Client
	err := row.Scan(&c.ID, &c.NationalID, &c.Name, &c.Address, &c.Phone, &c.Email, &c.Status,
		&c.PasswordHash, &c.CardNumber, &c.TelegramChatID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, c *models.Client) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.NationalID, c.Name, c.Address, c.Phone, c.Email, c.Status,
		c.PasswordHash, c.CardNumber, c.TelegramChatID, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert client: %w", mapErr(err))
	}
	return nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*models.Client, error) {
	return scanClient(s.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
}

func (s *Store) GetClientByEmail(ctx context.Context, email string) (*models.Client, error) {
	return scanClient(s.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE email = $1`, email))
}

func (s *Store) UpdateClient(ctx context.Context, c *models.Client) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE clients SET
			national_id = $2, name = $3, address = $4, phone = $5, email = $6,
			status = $7, password_hash = $8, card_number = $9, telegram_chat_id = $10
		WHERE id = $1`,
		c.ID, c.NationalID, c.Name, c.Address, c.Phone, c.Email,
		c.Status, c.PasswordHash, c.CardNumber, c.TelegramChatID,
	)
	if err != nil {
		return fmt.Errorf("update client: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update client %s: no rows", c.ID)
	}
	return nil
}
