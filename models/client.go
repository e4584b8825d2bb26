package models

import "time"

const (
	ClientStatusActive    = "active"
	ClientStatusSuspended = "suspended"
)

// Client is a customer (cliente) that places orders.
type Client struct {
	ID             string    `json:"id"`
	NationalID     string    `json:"national_id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	Status         string    `json:"status"`
	PasswordHash   string    `json:"password_hash,omitempty"`
	CardNumber     string    `json:"card_number,omitempty"`
	TelegramChatID int64     `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Public returns a copy without credentials, safe for API responses.
func (c Client) Public() Client {
	c.PasswordHash = ""
	return c
}

type CreateClientInput struct {
	NationalID     string `json:"national_id"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	CardNumber     string `json:"card_number"`
	TelegramChatID int64  `json:"telegram_chat_id"`
}
