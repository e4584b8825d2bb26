package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleClient     = "client"
	RoleCourier    = "courier"
	RoleRestaurant = "restaurant"
	RoleAdmin      = "admin"

	adminSubject = "admin"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	Role string
	ID   string
}

func AdminActor() Actor {
	return Actor{Role: RoleAdmin, ID: adminSubject}
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 session tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(secret string, ttl time.Duration) (*Authenticator, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (a *Authenticator) Issue(actor Actor) (string, error) {
	now := a.now()
	claims := Claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (a *Authenticator) Parse(token string) (Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" || !isRole(claims.Role) {
		return Actor{}, fmt.Errorf("%w: malformed claims", ErrUnauthorized)
	}
	return Actor{Role: claims.Role, ID: claims.Subject}, nil
}

func isRole(r string) bool {
	switch r {
	case RoleClient, RoleCourier, RoleRestaurant, RoleAdmin:
		return true
	}
	return false
}

type LoginInput struct {
	Role     string `json:"role"`
	Login    string `json:"login"` // email for clients and couriers, legal id for restaurants
	Password string `json:"password"`
}

type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	ID    string `json:"id"`
}

// Login verifies credentials for the role and returns a session token.
// Repeated failures for the same login are throttled.
func (s *Service) Login(ctx context.Context, auth *Authenticator, adminPassword string, input LoginInput) (*LoginResult, error) {
	login := strings.ToLower(strings.TrimSpace(input.Login))
	if !isRole(input.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
	}
	if wait := s.throttle.WaitSeconds(input.Role, login); wait > 0 {
		return nil, fmt.Errorf("%w: retry in %d seconds", ErrThrottled, wait)
	}

	actor, ok, err := s.verify(ctx, adminPassword, input.Role, login, input.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.throttle.RecordFailed(input.Role, login)
		s.log.WithField("role", input.Role).Warn("login failed")
		return nil, ErrUnauthorized
	}
	s.throttle.RecordSuccess(input.Role, login)

	token, err := auth.Issue(actor)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Role: actor.Role, ID: actor.ID}, nil
}

func (s *Service) verify(ctx context.Context, adminPassword, role, login, password string) (Actor, bool, error) {
	switch role {
	case RoleAdmin:
		if adminPassword == "" || password != adminPassword {
			return Actor{}, false, nil
		}
		return AdminActor(), true, nil
	case RoleClient:
		c, err := s.store.GetClientByEmail(ctx, login)
		if err != nil {
			return Actor{}, false, fmt.Errorf("get client: %w", err)
		}
		if c == nil || !CheckPassword(c.PasswordHash, password) {
			return Actor{}, false, nil
		}
		return Actor{Role: RoleClient, ID: c.ID}, true, nil
	case RoleCourier:
		c, err := s.store.GetCourierByEmail(ctx, login)
		if err != nil {
			return Actor{}, false, fmt.Errorf("get courier: %w", err)
		}
		if c == nil || !CheckPassword(c.PasswordHash, password) {
			return Actor{}, false, nil
		}
		return Actor{Role: RoleCourier, ID: c.ID}, true, nil
	case RoleRestaurant:
		r, err := s.store.GetRestaurantByLegalID(ctx, login)
		if err != nil {
			return Actor{}, false, fmt.Errorf("get restaurant: %w", err)
		}
		if r == nil || !CheckPassword(r.PasswordHash, password) {
			return Actor{}, false, nil
		}
		return Actor{Role: RoleRestaurant, ID: r.ID}, true, nil
	}
	return Actor{}, false, nil
}
