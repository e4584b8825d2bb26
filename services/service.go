package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"food-delivery/config"
	"food-delivery/models"
)

// Store persists the domain records. Get* methods return (nil, nil) when
// the record does not exist.
type Store interface {
	CreateClient(ctx context.Context, c *models.Client) error
	GetClient(ctx context.Context, id string) (*models.Client, error)
	GetClientByEmail(ctx context.Context, email string) (*models.Client, error)
	UpdateClient(ctx context.Context, c *models.Client) error

	CreateCourier(ctx context.Context, c *models.Courier) error
	GetCourier(ctx context.Context, id string) (*models.Courier, error)
	GetCourierByEmail(ctx context.Context, email string) (*models.Courier, error)
	ListCouriers(ctx context.Context) ([]models.Courier, error)
	UpdateCourier(ctx context.Context, c *models.Courier) error

	CreateRestaurant(ctx context.Context, r *models.Restaurant) error
	GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error)
	GetRestaurantByLegalID(ctx context.Context, legalID string) (*models.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]models.Restaurant, error)
	UpdateRestaurant(ctx context.Context, r *models.Restaurant) error

	// CreateOrder stores o and, when courier is non-nil, the courier
	// update in the same unit of work.
	CreateOrder(ctx context.Context, o *models.Order, courier *models.Courier) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error)
	// UpdateOrder is CreateOrder's counterpart for existing orders.
	UpdateOrder(ctx context.Context, o *models.Order, courier *models.Courier) error

	Close() error
}

// Notifier is told about order lifecycle events once they are stored.
// Calls happen outside the service lock, so a slow notifier delays only
// the caller; errors are the notifier's to log.
type Notifier interface {
	OrderCreated(ctx context.Context, o *models.Order)
	OrderStatusChanged(ctx context.Context, o *models.Order, from string)
}

// Notifiers fans events out to every member.
type Notifiers []Notifier

func (ns Notifiers) OrderCreated(ctx context.Context, o *models.Order) {
	for _, n := range ns {
		n.OrderCreated(ctx, o)
	}
}

func (ns Notifiers) OrderStatusChanged(ctx context.Context, o *models.Order, from string) {
	for _, n := range ns {
		n.OrderStatusChanged(ctx, o, from)
	}
}

type Service struct {
	store    Store
	cfg      config.DeliveryConfig
	log      logrus.FieldLogger
	notifier Notifier
	throttle *LoginThrottle
	now      func() time.Time

	// mu serializes courier assignment and release so two orders never
	// claim the same available courier.
	mu sync.Mutex
}

func New(store Store, cfg config.DeliveryConfig, log logrus.FieldLogger) *Service {
	return &Service{
		store:    store,
		cfg:      cfg,
		log:      log,
		notifier: Notifiers(nil),
		throttle: NewLoginThrottle(),
		now:      time.Now,
	}
}

// SetNotifier replaces the lifecycle event sink.
func (s *Service) SetNotifier(n Notifier) {
	if n == nil {
		n = Notifiers(nil)
	}
	s.notifier = n
}

// Store exposes the underlying store for read-only handlers.
func (s *Service) Store() Store {
	return s.store
}
