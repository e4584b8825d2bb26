// Package client is a Go client for the order service REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"food-delivery/models"
	"food-delivery/services"
)

// APIError is a non-2xx response. errors.Is matches it against the
// services sentinel errors by code.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return services.ErrorForCode(e.Code)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	Token   string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
	}
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) Token() string {
	return c.token
}

// do sends body as JSON and decodes a successful response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func call[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	var out T
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func list[T any](ctx context.Context, c *Client, method, path string, body any) ([]T, error) {
	var out []T
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Code == "" {
		return &APIError{Status: resp.StatusCode, Code: "internal", Message: strings.TrimSpace(string(raw))}
	}
	return &APIError{Status: resp.StatusCode, Code: body.Code, Message: body.Error}
}

// Login authenticates and returns a client bound to the new token.
func (c *Client) Login(ctx context.Context, in services.LoginInput) (*Client, *services.LoginResult, error) {
	var res services.LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &res); err != nil {
		return nil, nil, err
	}
	return c.WithToken(res.Token), &res, nil
}

func (c *Client) RegisterClient(ctx context.Context, in models.CreateClientInput) (*models.Client, error) {
	return call[models.Client](ctx, c, http.MethodPost, "/api/clients", in)
}

func (c *Client) GetClient(ctx context.Context, id string) (*models.Client, error) {
	return call[models.Client](ctx, c, http.MethodGet, "/api/clients/"+url.PathEscape(id), nil)
}

func (c *Client) SetClientStatus(ctx context.Context, id, status string) (*models.Client, error) {
	return call[models.Client](ctx, c, http.MethodPatch, "/api/clients/"+url.PathEscape(id)+"/status", map[string]string{"status": status})
}

// RegisterCourier returns the courier and, when the service generated
// one, its initial password.
func (c *Client) RegisterCourier(ctx context.Context, in models.CreateCourierInput) (*models.Courier, string, error) {
	var out struct {
		Courier           models.Courier `json:"courier"`
		GeneratedPassword string         `json:"generated_password"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/couriers", in, &out); err != nil {
		return nil, "", err
	}
	return &out.Courier, out.GeneratedPassword, nil
}

func (c *Client) ListCouriers(ctx context.Context, status string) ([]models.Courier, error) {
	path := "/api/couriers"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	return list[models.Courier](ctx, c, http.MethodGet, path, nil)
}

func (c *Client) GetCourier(ctx context.Context, id string) (*models.Courier, error) {
	return call[models.Courier](ctx, c, http.MethodGet, "/api/couriers/"+url.PathEscape(id), nil)
}

func (c *Client) SetCourierStatus(ctx context.Context, id, status string) (*models.Courier, error) {
	return call[models.Courier](ctx, c, http.MethodPatch, "/api/couriers/"+url.PathEscape(id)+"/status", map[string]string{"status": status})
}

// CourierOrders returns the courier's orders still in preparation or in transit.
func (c *Client) CourierOrders(ctx context.Context, courierID string) ([]models.Order, error) {
	return list[models.Order](ctx, c, http.MethodGet, "/api/couriers/"+url.PathEscape(courierID)+"/orders", nil)
}

func (c *Client) RegisterRestaurant(ctx context.Context, in models.CreateRestaurantInput) (*models.Restaurant, error) {
	return call[models.Restaurant](ctx, c, http.MethodPost, "/api/restaurants", in)
}

func (c *Client) ListRestaurants(ctx context.Context, cuisine string) ([]models.Restaurant, error) {
	path := "/api/restaurants"
	if cuisine != "" {
		path += "?cuisine=" + url.QueryEscape(cuisine)
	}
	return list[models.Restaurant](ctx, c, http.MethodGet, path, nil)
}

func (c *Client) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	return call[models.Restaurant](ctx, c, http.MethodGet, "/api/restaurants/"+url.PathEscape(id), nil)
}

func (c *Client) PutCombo(ctx context.Context, restaurantID string, combo models.Combo) (*models.Restaurant, error) {
	return call[models.Restaurant](ctx, c, http.MethodPut, "/api/restaurants/"+url.PathEscape(restaurantID)+"/combos", combo)
}

func (c *Client) RemoveCombo(ctx context.Context, restaurantID string, number int) (*models.Restaurant, error) {
	path := "/api/restaurants/" + url.PathEscape(restaurantID) + "/combos/" + strconv.Itoa(number)
	return call[models.Restaurant](ctx, c, http.MethodDelete, path, nil)
}

func (c *Client) CreateOrder(ctx context.Context, in models.CreateOrderInput) (*models.Order, error) {
	return call[models.Order](ctx, c, http.MethodPost, "/api/orders", in)
}

func (c *Client) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	q := url.Values{}
	for k, v := range map[string]string{
		"client_id":     f.ClientID,
		"restaurant_id": f.RestaurantID,
		"courier_id":    f.CourierID,
		"status":        f.Status,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	path := "/api/orders"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return list[models.Order](ctx, c, http.MethodGet, path, nil)
}

func (c *Client) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return call[models.Order](ctx, c, http.MethodGet, "/api/orders/"+url.PathEscape(id), nil)
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id, status string) (*models.Order, error) {
	return call[models.Order](ctx, c, http.MethodPatch, "/api/orders/"+url.PathEscape(id)+"/status", map[string]string{"status": status})
}

func (c *Client) SubmitFeedback(ctx context.Context, orderID string, positive bool, comment string) error {
	in := models.FeedbackInput{Positive: positive, Comment: comment}
	return c.do(ctx, http.MethodPost, "/api/orders/"+url.PathEscape(orderID)+"/feedback", in, nil)
}

// RevenueReport fetches the admin report; both days are inclusive.
func (c *Client) RevenueReport(ctx context.Context, from, to time.Time) (*models.RevenueReport, error) {
	q := url.Values{}
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))
	return call[models.RevenueReport](ctx, c, http.MethodGet, "/api/reports/revenue?"+q.Encode(), nil)
}

// OrderEvent mirrors the websocket stream messages.
type OrderEvent struct {
	Type  string        `json:"type"`
	From  string        `json:"from,omitempty"`
	Order *models.Order `json:"order"`
}

// WatchOrder streams status events for an order to fn until the order is
// closed by the server, ctx is cancelled or fn returns false.
func (c *Client) WatchOrder(ctx context.Context, orderID string, fn func(OrderEvent) bool) error {
	wsURL := c.baseURL
	if strings.HasPrefix(wsURL, "https") {
		wsURL = "wss" + wsURL[5:]
	} else if strings.HasPrefix(wsURL, "http") {
		wsURL = "ws" + wsURL[4:]
	}
	wsURL += "/ws/orders/" + url.PathEscape(orderID) + "?token=" + url.QueryEscape(c.token)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			defer resp.Body.Close()
			return decodeError(resp)
		}
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var ev OrderEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read event: %w", err)
		}
		if !fn(ev) {
			return nil
		}
	}
}
