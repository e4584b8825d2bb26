// Package filestore keeps every collection as a JSON array in its own file
// under one data directory. The whole data set lives in memory; each
// mutation rewrites the affected files atomically (temp file + rename).
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"food-delivery/models"
)

const (
	clientsFile     = "clients.json"
	couriersFile    = "couriers.json"
	restaurantsFile = "restaurants.json"
	ordersFile      = "orders.json"
)

var ErrDuplicate = models.ErrDuplicate

type Store struct {
	dir string

	mu          sync.RWMutex
	clients     map[string]models.Client
	couriers    map[string]models.Courier
	restaurants map[string]models.Restaurant
	orders      map[string]models.Order
}

// Open loads (or initializes) the store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{
		dir:         dir,
		clients:     make(map[string]models.Client),
		couriers:    make(map[string]models.Courier),
		restaurants: make(map[string]models.Restaurant),
		orders:      make(map[string]models.Order),
	}
	var clients []models.Client
	if err := s.load(clientsFile, &clients); err != nil {
		return nil, err
	}
	for _, c := range clients {
		s.clients[c.ID] = c
	}
	var couriers []models.Courier
	if err := s.load(couriersFile, &couriers); err != nil {
		return nil, err
	}
	for _, c := range couriers {
		s.couriers[c.ID] = c
	}
	var restaurants []models.Restaurant
	if err := s.load(restaurantsFile, &restaurants); err != nil {
		return nil, err
	}
	for _, r := range restaurants {
		s.restaurants[r.ID] = r
	}
	var orders []models.Order
	if err := s.load(ordersFile, &orders); err != nil {
		return nil, err
	}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) load(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// write replaces name with the JSON encoding of v.
func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// values returns the map's values ordered by key so files are stable across writes.
func values[T any](m map[string]T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(m))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func (s *Store) flushClients() error     { return s.write(clientsFile, values(s.clients)) }
func (s *Store) flushCouriers() error    { return s.write(couriersFile, values(s.couriers)) }
func (s *Store) flushRestaurants() error { return s.write(restaurantsFile, values(s.restaurants)) }
func (s *Store) flushOrders() error      { return s.write(ordersFile, values(s.orders)) }

// Clients

func (s *Store) CreateClient(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ID]; ok {
		return fmt.Errorf("client %s: %w", c.ID, ErrDuplicate)
	}
	for _, other := range s.clients {
		if other.Email == c.Email {
			return fmt.Errorf("client email %s: %w", c.Email, ErrDuplicate)
		}
	}
	s.clients[c.ID] = *c
	if err := s.flushClients(); err != nil {
		delete(s.clients, c.ID)
		return err
	}
	return nil
}

func (s *Store) GetClient(_ context.Context, id string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) GetClientByEmail(_ context.Context, email string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateClient(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.clients[c.ID]
	if !ok {
		return fmt.Errorf("client %s does not exist", c.ID)
	}
	s.clients[c.ID] = *c
	if err := s.flushClients(); err != nil {
		s.clients[c.ID] = prev
		return err
	}
	return nil
}

// Couriers

func (s *Store) CreateCourier(_ context.Context, c *models.Courier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.couriers[c.ID]; ok {
		return fmt.Errorf("courier %s: %w", c.ID, ErrDuplicate)
	}
	for _, other := range s.couriers {
		if other.Email == c.Email {
			return fmt.Errorf("courier email %s: %w", c.Email, ErrDuplicate)
		}
	}
	s.couriers[c.ID] = cloneCourier(*c)
	if err := s.flushCouriers(); err != nil {
		delete(s.couriers, c.ID)
		return err
	}
	return nil
}

func (s *Store) GetCourier(_ context.Context, id string) (*models.Courier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.couriers[id]
	if !ok {
		return nil, nil
	}
	c = cloneCourier(c)
	return &c, nil
}

func (s *Store) GetCourierByEmail(_ context.Context, email string) (*models.Courier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.couriers {
		if c.Email == email {
			c = cloneCourier(c)
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) ListCouriers(_ context.Context) ([]models.Courier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.couriers)
	for i := range out {
		out[i] = cloneCourier(out[i])
	}
	return out, nil
}

func (s *Store) UpdateCourier(_ context.Context, c *models.Courier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.couriers[c.ID]
	if !ok {
		return fmt.Errorf("courier %s does not exist", c.ID)
	}
	s.couriers[c.ID] = cloneCourier(*c)
	if err := s.flushCouriers(); err != nil {
		s.couriers[c.ID] = prev
		return err
	}
	return nil
}

// Restaurants

func (s *Store) CreateRestaurant(_ context.Context, r *models.Restaurant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.restaurants[r.ID]; ok {
		return fmt.Errorf("restaurant %s: %w", r.ID, ErrDuplicate)
	}
	for _, other := range s.restaurants {
		if other.LegalID == r.LegalID {
			return fmt.Errorf("restaurant legal id %s: %w", r.LegalID, ErrDuplicate)
		}
	}
	s.restaurants[r.ID] = cloneRestaurant(*r)
	if err := s.flushRestaurants(); err != nil {
		delete(s.restaurants, r.ID)
		return err
	}
	return nil
}

func (s *Store) GetRestaurant(_ context.Context, id string) (*models.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.restaurants[id]
	if !ok {
		return nil, nil
	}
	r = cloneRestaurant(r)
	return &r, nil
}

func (s *Store) GetRestaurantByLegalID(_ context.Context, legalID string) (*models.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.restaurants {
		if r.LegalID == legalID {
			r = cloneRestaurant(r)
			return &r, nil
		}
	}
	return nil, nil
}

func (s *Store) ListRestaurants(_ context.Context) ([]models.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.restaurants)
	for i := range out {
		out[i] = cloneRestaurant(out[i])
	}
	return out, nil
}

func (s *Store) UpdateRestaurant(_ context.Context, r *models.Restaurant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.restaurants[r.ID]
	if !ok {
		return fmt.Errorf("restaurant %s does not exist", r.ID)
	}
	s.restaurants[r.ID] = cloneRestaurant(*r)
	if err := s.flushRestaurants(); err != nil {
		s.restaurants[r.ID] = prev
		return err
	}
	return nil
}

// Orders

func (s *Store) CreateOrder(_ context.Context, o *models.Order, courier *models.Courier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; ok {
		return fmt.Errorf("order %s: %w", o.ID, ErrDuplicate)
	}
	s.orders[o.ID] = cloneOrder(*o)
	restoreCourier, err := s.saveCourierLocked(courier)
	if err != nil {
		delete(s.orders, o.ID)
		return err
	}
	if err := s.flushOrders(); err != nil {
		delete(s.orders, o.ID)
		restoreCourier()
		return err
	}
	return nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	o = cloneOrder(o)
	return &o, nil
}

func (s *Store) ListOrders(_ context.Context, f models.OrderFilter) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Order{}
	for _, o := range values(s.orders) {
		if f.Match(&o) {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (s *Store) UpdateOrder(_ context.Context, o *models.Order, courier *models.Courier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.orders[o.ID]
	if !ok {
		return fmt.Errorf("order %s does not exist", o.ID)
	}
	s.orders[o.ID] = cloneOrder(*o)
	restoreCourier, err := s.saveCourierLocked(courier)
	if err != nil {
		s.orders[o.ID] = prev
		return err
	}
	if err := s.flushOrders(); err != nil {
		s.orders[o.ID] = prev
		restoreCourier()
		return err
	}
	return nil
}

// saveCourierLocked writes the courier half of an order update. The
// courier file is written before the orders file; the returned func puts
// the previous courier back (in memory and on disk) when the orders write
// fails afterwards.
func (s *Store) saveCourierLocked(c *models.Courier) (restore func(), err error) {
	if c == nil {
		return func() {}, nil
	}
	id := c.ID
	prev, ok := s.couriers[id]
	if !ok {
		return nil, fmt.Errorf("courier %s does not exist", id)
	}
	s.couriers[id] = cloneCourier(*c)
	if err := s.flushCouriers(); err != nil {
		s.couriers[id] = prev
		return nil, err
	}
	return func() {
		s.couriers[id] = prev
		// The next successful flush rewrites the file from memory anyway.
		_ = s.flushCouriers()
	}, nil
}

func cloneCourier(c models.Courier) models.Courier {
	c.Complaints = append([]string{}, c.Complaints...)
	return c
}

func cloneRestaurant(r models.Restaurant) models.Restaurant {
	r.Combos = append([]models.Combo{}, r.Combos...)
	return r
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem{}, o.Items...)
	if o.CourierID != nil {
		id := *o.CourierID
		o.CourierID = &id
	}
	if o.DeliveredAt != nil {
		at := *o.DeliveredAt
		o.DeliveredAt = &at
	}
	return o
}
