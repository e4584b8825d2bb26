package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"food-delivery/models"
)

// RegisterCourier creates a courier in available status. When no password
// is given a secure one is generated and returned once as the second value.
func (s *Service) RegisterCourier(ctx context.Context, input models.CreateCourierInput) (*models.Courier, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: name and a valid email are required", ErrInvalidInput)
	}
	weekday := s.cfg.WeekdayRatePerKm
	if input.WeekdayRate != nil {
		weekday = *input.WeekdayRate
	}
	holiday := s.cfg.HolidayRatePerKm
	if input.HolidayRate != nil {
		holiday = *input.HolidayRate
	}
	if weekday.LessThanOrEqual(decimal.Zero) || holiday.LessThanOrEqual(decimal.Zero) {
		return nil, "", fmt.Errorf("%w: per-km rates must be > 0", ErrInvalidInput)
	}
	if !IsCents(weekday) || !IsCents(holiday) {
		return nil, "", fmt.Errorf("%w: per-km rates take at most 2 decimals", ErrInvalidInput)
	}

	existing, err := s.store.GetCourierByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("get courier: %w", err)
	}
	if existing != nil {
		return nil, "", fmt.Errorf("courier email %s: %w", email, ErrConflict)
	}

	plain, generated := input.Password, ""
	if plain == "" {
		if plain, err = GenerateSecurePassword(); err != nil {
			return nil, "", fmt.Errorf("generate password: %w", err)
		}
		generated = plain
	}
	hash, err := HashPassword(plain)
	if err != nil {
		return nil, "", err
	}

	c := &models.Courier{
		ID:             uuid.NewString(),
		NationalID:     strings.TrimSpace(input.NationalID),
		Name:           name,
		Phone:          strings.TrimSpace(input.Phone),
		Email:          email,
		Status:         models.CourierStatusAvailable,
		WeekdayRate:    weekday,
		HolidayRate:    holiday,
		Complaints:     []string{},
		PasswordHash:   hash,
		CardNumber:     strings.TrimSpace(input.CardNumber),
		TelegramChatID: input.TelegramChatID,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.CreateCourier(ctx, c); err != nil {
		return nil, "", wrapStoreErr("create courier", err)
	}
	s.log.WithField("courier_id", c.ID).Info("courier registered")
	return c, generated, nil
}

func (s *Service) GetCourier(ctx context.Context, id string) (*models.Courier, error) {
	c, err := s.store.GetCourier(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get courier: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("courier %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// ListCouriers returns all couriers, optionally only those with the given status.
func (s *Service) ListCouriers(ctx context.Context, status string) ([]models.Courier, error) {
	all, err := s.store.ListCouriers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list couriers: %w", err)
	}
	if status == "" {
		return all, nil
	}
	out := make([]models.Courier, 0, len(all))
	for _, c := range all {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

// SetCourierStatus switches a courier between available and inactive.
// Busy is reserved for assignment; a busy courier cannot be changed here.
// Only an admin may reactivate a courier deactivated for warnings.
func (s *Service) SetCourierStatus(ctx context.Context, actor Actor, id, status string) (*models.Courier, error) {
	if status != models.CourierStatusAvailable && status != models.CourierStatusInactive {
		return nil, fmt.Errorf("%w: courier status must be available or inactive", ErrInvalidInput)
	}
	if actor.Role != RoleAdmin && !(actor.Role == RoleCourier && actor.ID == id) {
		return nil, ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.GetCourier(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == models.CourierStatusBusy {
		return nil, fmt.Errorf("courier %s has an active delivery: %w", id, ErrConflict)
	}
	if actor.Role != RoleAdmin && s.maxWarnings() > 0 && c.Warnings >= s.maxWarnings() {
		return nil, fmt.Errorf("courier %s was deactivated after %d warnings: %w", id, c.Warnings, ErrForbidden)
	}
	c.Status = status
	if err := s.store.UpdateCourier(ctx, c); err != nil {
		return nil, fmt.Errorf("update courier: %w", err)
	}
	s.log.WithField("courier_id", id).WithField("status", status).Info("courier status changed")
	return c, nil
}

// ResetDailyKm zeroes every courier's daily distance. Returns how many couriers were reset.
func (s *Service) ResetDailyKm(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	couriers, err := s.store.ListCouriers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list couriers: %w", err)
	}
	n := 0
	for i := range couriers {
		if couriers[i].DailyKm == 0 {
			continue
		}
		couriers[i].DailyKm = 0
		if err := s.store.UpdateCourier(ctx, &couriers[i]); err != nil {
			return n, fmt.Errorf("update courier %s: %w", couriers[i].ID, err)
		}
		n++
	}
	s.log.WithField("couriers", n).Info("daily km reset")
	return n, nil
}

func (s *Service) maxWarnings() int {
	if s.cfg.MaxWarnings < 1 {
		return 3
	}
	return s.cfg.MaxWarnings
}
