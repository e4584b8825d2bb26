package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"food-delivery/models"
)

// ValidateCombos checks numbering (1-9, unique), names and prices.
func ValidateCombos(combos []models.Combo) error {
	seen := make(map[int]bool, len(combos))
	for _, c := range combos {
		if err := validateCombo(c); err != nil {
			return err
		}
		if seen[c.Number] {
			return fmt.Errorf("%w: duplicate combo number %d", ErrInvalidInput, c.Number)
		}
		seen[c.Number] = true
	}
	return nil
}

func validateCombo(c models.Combo) error {
	if c.Number < models.MinComboNumber || c.Number > models.MaxComboNumber {
		return fmt.Errorf("%w: combo number %d outside %d-%d", ErrInvalidInput, c.Number, models.MinComboNumber, models.MaxComboNumber)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: combo %d needs a name", ErrInvalidInput, c.Number)
	}
	if c.Price.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: combo %d price must be > 0", ErrInvalidInput, c.Number)
	}
	if !IsCents(c.Price) {
		return fmt.Errorf("%w: combo %d price %s has more than 2 decimals", ErrInvalidInput, c.Number, c.Price)
	}
	return nil
}

func sortCombos(combos []models.Combo) {
	sort.Slice(combos, func(i, j int) bool { return combos[i].Number < combos[j].Number })
}

func (s *Service) RegisterRestaurant(ctx context.Context, input models.CreateRestaurantInput) (*models.Restaurant, error) {
	legalID := strings.ToLower(strings.TrimSpace(input.LegalID))
	name := strings.TrimSpace(input.Name)
	if legalID == "" || name == "" {
		return nil, fmt.Errorf("%w: legal_id and name are required", ErrInvalidInput)
	}
	if (input.Lat == nil) != (input.Lon == nil) {
		return nil, fmt.Errorf("%w: lat and lon go together", ErrInvalidInput)
	}
	if err := ValidateCombos(input.Combos); err != nil {
		return nil, err
	}
	existing, err := s.store.GetRestaurantByLegalID(ctx, legalID)
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("restaurant legal id %s: %w", legalID, ErrConflict)
	}
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	combos := append([]models.Combo{}, input.Combos...)
	for i := range combos {
		combos[i].Name = strings.TrimSpace(combos[i].Name)
	}
	sortCombos(combos)
	r := &models.Restaurant{
		ID:           uuid.NewString(),
		LegalID:      legalID,
		Name:         name,
		Address:      strings.TrimSpace(input.Address),
		CuisineType:  strings.TrimSpace(input.CuisineType),
		PasswordHash: hash,
		Lat:          input.Lat,
		Lon:          input.Lon,
		Combos:       combos,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateRestaurant(ctx, r); err != nil {
		return nil, wrapStoreErr("create restaurant", err)
	}
	s.log.WithField("restaurant_id", r.ID).Info("restaurant registered")
	return r, nil
}

func (s *Service) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	r, err := s.store.GetRestaurant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("restaurant %s: %w", id, ErrNotFound)
	}
	return r, nil
}

// ListRestaurants returns restaurants sorted by name, optionally filtered by cuisine type (case-insensitive).
func (s *Service) ListRestaurants(ctx context.Context, cuisine string) ([]models.Restaurant, error) {
	all, err := s.store.ListRestaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	out := all[:0]
	for _, r := range all {
		if cuisine == "" || strings.EqualFold(r.CuisineType, cuisine) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// PutCombo adds a combo to the restaurant menu or replaces the one with the same number.
func (s *Service) PutCombo(ctx context.Context, restaurantID string, combo models.Combo) (*models.Restaurant, error) {
	combo.Name = strings.TrimSpace(combo.Name)
	if err := validateCombo(combo); err != nil {
		return nil, err
	}
	r, err := s.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if existing := r.Combo(combo.Number); existing != nil {
		*existing = combo
	} else {
		r.Combos = append(r.Combos, combo)
		sortCombos(r.Combos)
	}
	if err := s.store.UpdateRestaurant(ctx, r); err != nil {
		return nil, fmt.Errorf("update restaurant: %w", err)
	}
	return r, nil
}

func (s *Service) RemoveCombo(ctx context.Context, restaurantID string, number int) (*models.Restaurant, error) {
	r, err := s.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	kept := r.Combos[:0]
	for _, c := range r.Combos {
		if c.Number != number {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(r.Combos) {
		return nil, fmt.Errorf("combo %d: %w", number, ErrNotFound)
	}
	r.Combos = kept
	if err := s.store.UpdateRestaurant(ctx, r); err != nil {
		return nil, fmt.Errorf("update restaurant: %w", err)
	}
	return r, nil
}
