package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CourierStatusAvailable = "available"
	CourierStatusBusy      = "busy"
	CourierStatusInactive  = "inactive"
)

// Courier is a delivery courier (repartidor).
type Courier struct {
	ID             string          `json:"id"`
	NationalID     string          `json:"national_id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	Status         string          `json:"status"`
	DailyKm        float64         `json:"daily_km"`
	WeekdayRate    decimal.Decimal `json:"weekday_rate"` // per km
	HolidayRate    decimal.Decimal `json:"holiday_rate"` // per km
	Warnings       int             `json:"warnings"`
	Complaints     []string        `json:"complaints"`
	PasswordHash   string          `json:"password_hash,omitempty"`
	CardNumber     string          `json:"card_number,omitempty"`
	TelegramChatID int64           `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Public returns a copy without credentials, safe for API responses.
func (c Courier) Public() Courier {
	c.PasswordHash = ""
	return c
}

type CreateCourierInput struct {
	NationalID     string           `json:"national_id"`
	Name           string           `json:"name"`
	Phone          string           `json:"phone"`
	Email          string           `json:"email"`
	Password       string           `json:"password"`
	CardNumber     string           `json:"card_number"`
	WeekdayRate    *decimal.Decimal `json:"weekday_rate"`
	HolidayRate    *decimal.Decimal `json:"holiday_rate"`
	TelegramChatID int64            `json:"telegram_chat_id"`
}
