package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-delivery/filestore"
	"food-delivery/logger"
	"food-delivery/models"
)

type sent struct {
	chatID int64
	text   string
}

type fakeAPI struct {
	mu   sync.Mutex
	msgs []sent
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.msgs = append(f.msgs, sent{chatID: m.ChatID, text: m.Text})
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) to(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.msgs {
		if m.chatID == chatID {
			out = append(out, m.text)
		}
	}
	return out
}

const (
	adminChat   = 100
	clientChat  = 200
	courierChat = 300
)

func setup(t *testing.T) (*Bot, *fakeAPI, *models.Order) {
	t.Helper()
	ctx := context.Background()
	store, err := filestore.Open(t.TempDir())
	require.NoError(t, err)
	now := time.Date(2026, 9, 16, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.CreateClient(ctx, &models.Client{ID: "client-1", Name: "Ana", Email: "ana@x.com", Status: models.ClientStatusActive, TelegramChatID: clientChat, CreatedAt: now}))
	courier := &models.Courier{ID: "courier-1", Name: "Kike", Email: "k@x.com", Status: models.CourierStatusBusy, TelegramChatID: courierChat, CreatedAt: now}
	require.NoError(t, store.CreateCourier(ctx, courier))

	courierID := courier.ID
	o := &models.Order{
		ID: "0123456789abcdef", ClientID: "client-1", RestaurantID: "rest-1", CourierID: &courierID,
		Items:    []models.OrderItem{{ComboNumber: 1, Name: "Casado", UnitPrice: decimal.NewFromInt(4500), Quantity: 1, LineTotal: decimal.NewFromInt(4500)}},
		Subtotal: decimal.NewFromInt(4500), DistanceKm: 2, TransportCost: decimal.NewFromInt(700),
		VAT: decimal.NewFromInt(585), Total: decimal.NewFromInt(5785),
		Status: models.OrderStatusInPreparation, CreatedAt: now,
	}
	require.NoError(t, store.CreateOrder(ctx, o, nil))

	api := &fakeAPI{}
	return newBot(api, adminChat, store, logger.Discard()), api, o
}

func TestBot_OrderCreated(t *testing.T) {
	b, api, o := setup(t)
	b.OrderCreated(context.Background(), o)

	admin := api.to(adminChat)
	require.Len(t, admin, 1)
	assert.Contains(t, admin[0], "#01234567")
	assert.Contains(t, admin[0], "Total: ₡5785.00")

	client := api.to(clientChat)
	require.Len(t, client, 1)
	assert.Contains(t, client[0], "recibido")

	courier := api.to(courierChat)
	require.Len(t, courier, 1)
	assert.True(t, strings.HasPrefix(courier[0], "🛵 Nuevo pedido asignado"))
}

func TestBot_OrderStatusChanged(t *testing.T) {
	b, api, o := setup(t)
	o.Status = models.OrderStatusInTransit
	b.OrderStatusChanged(context.Background(), o, models.OrderStatusInPreparation)

	admin := api.to(adminChat)
	require.Len(t, admin, 1)
	assert.True(t, strings.HasPrefix(admin[0], "En preparación → En camino"))
	client := api.to(clientChat)
	require.Len(t, client, 1)
	assert.Contains(t, client[0], "va en camino")
	assert.Empty(t, api.to(courierChat))
}

func TestBot_NoAdminChat(t *testing.T) {
	b, api, o := setup(t)
	b.admin = 0
	b.OrderCreated(context.Background(), o)
	assert.Empty(t, api.to(0))
	assert.Len(t, api.to(clientChat), 1)
}

func TestBot_StatusCommand(t *testing.T) {
	b, api, o := setup(t)
	ctx := context.Background()
	msg := func(chatID int64, text string) *tgbotapi.Message {
		return &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: chatID}}
	}

	tests := []struct {
		name   string
		chatID int64
		text   string
		want   string
	}{
		{"client sees own order", clientChat, "/status " + o.ID, "recibido"},
		{"courier sees assigned order", courierChat, "/status " + o.ID, "Pedido #01234567"},
		{"admin gets summary", adminChat, "/status " + o.ID, "Restaurante: #rest-1"},
		{"stranger", 999, "/status " + o.ID, "Pedido no encontrado."},
		{"unknown order", clientChat, "/status nope", "Pedido no encontrado."},
		{"missing argument", clientChat, "/status", "Uso: /status"},
		{"start", 555, "/start", "Su chat id es 555"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(api.to(tt.chatID))
			b.handleMessage(ctx, msg(tt.chatID, tt.text))
			got := api.to(tt.chatID)
			require.Len(t, got, before+1)
			assert.Contains(t, got[len(got)-1], tt.want)
		})
	}
}
