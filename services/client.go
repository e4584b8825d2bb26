package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"food-delivery/models"
)

func (s *Service) RegisterClient(ctx context.Context, input models.CreateClientInput) (*models.Client, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: name and a valid email are required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Address) == "" {
		return nil, fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	existing, err := s.store.GetClientByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("client email %s: %w", email, ErrConflict)
	}
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	c := &models.Client{
		ID:             uuid.NewString(),
		NationalID:     strings.TrimSpace(input.NationalID),
		Name:           name,
		Address:        strings.TrimSpace(input.Address),
		Phone:          strings.TrimSpace(input.Phone),
		Email:          email,
		Status:         models.ClientStatusActive,
		PasswordHash:   hash,
		CardNumber:     strings.TrimSpace(input.CardNumber),
		TelegramChatID: input.TelegramChatID,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.CreateClient(ctx, c); err != nil {
		return nil, wrapStoreErr("create client", err)
	}
	s.log.WithField("client_id", c.ID).Info("client registered")
	return c, nil
}

func (s *Service) GetClient(ctx context.Context, id string) (*models.Client, error) {
	c, err := s.store.GetClient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// SetClientStatus activates or suspends a client. Suspended clients cannot place orders.
func (s *Service) SetClientStatus(ctx context.Context, id, status string) (*models.Client, error) {
	if status != models.ClientStatusActive && status != models.ClientStatusSuspended {
		return nil, fmt.Errorf("%w: invalid client status %q", ErrInvalidInput, status)
	}
	c, err := s.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Status = status
	if err := s.store.UpdateClient(ctx, c); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	s.log.WithField("client_id", id).WithField("status", status).Info("client status changed")
	return c, nil
}
