package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinComboNumber = 1
	MaxComboNumber = 9
)

// Combo is a fixed-price meal bundle on a restaurant menu.
type Combo struct {
	Number int             `json:"number"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

type Restaurant struct {
	ID           string    `json:"id"`
	LegalID      string    `json:"legal_id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	CuisineType  string    `json:"cuisine_type"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Lat          *float64  `json:"lat,omitempty"`
	Lon          *float64  `json:"lon,omitempty"`
	Combos       []Combo   `json:"combos"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public returns a copy without credentials, safe for API responses.
func (r Restaurant) Public() Restaurant {
	r.PasswordHash = ""
	return r
}

// Combo returns the combo with the given number, or nil.
func (r *Restaurant) Combo(number int) *Combo {
	for i := range r.Combos {
		if r.Combos[i].Number == number {
			return &r.Combos[i]
		}
	}
	return nil
}

type CreateRestaurantInput struct {
	LegalID     string   `json:"legal_id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	CuisineType string   `json:"cuisine_type"`
	Password    string   `json:"password"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Combos      []Combo  `json:"combos"`
}
