// Package bot sends order notifications over Telegram and answers a few
// read-only commands.
package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"food-delivery/models"
	"food-delivery/services"
)

// sender is the part of *tgbotapi.BotAPI the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot implements services.Notifier: the admin chat gets every order event,
// clients and couriers get the events that concern them when they have a
// chat id on file.
type Bot struct {
	api     sender
	updates func() tgbotapi.UpdatesChannel
	admin   int64
	store   services.Store
	log     logrus.FieldLogger
}

func New(token string, adminChatID int64, store services.Store, log logrus.FieldLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	b := newBot(api, adminChatID, store, log)
	b.updates = func() tgbotapi.UpdatesChannel {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		return api.GetUpdatesChan(u)
	}
	log.WithField("bot", api.Self.UserName).Info("telegram bot authorized")
	return b, nil
}

func newBot(api sender, adminChatID int64, store services.Store, log logrus.FieldLogger) *Bot {
	return &Bot{api: api, admin: adminChatID, store: store, log: log.WithField("component", "bot")}
}

func (b *Bot) send(chatID int64, text string) {
	if chatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.WithField("chat_id", chatID).WithError(err).Warn("send failed")
	}
}

func (b *Bot) OrderCreated(ctx context.Context, o *models.Order) {
	b.send(b.admin, "🆕 "+services.AdminMessageForOrder(o))
	if c := b.client(ctx, o.ClientID); c != nil {
		b.send(c.TelegramChatID, services.ClientMessageForOrderStatus(o, o.Status))
	}
	if o.CourierID != nil {
		if k := b.courier(ctx, *o.CourierID); k != nil {
			b.send(k.TelegramChatID, "🛵 Nuevo pedido asignado\n"+services.AdminMessageForOrder(o))
		}
	}
}

func (b *Bot) OrderStatusChanged(ctx context.Context, o *models.Order, from string) {
	b.send(b.admin, fmt.Sprintf("%s → %s\n%s", services.StatusLabel(from), services.StatusLabel(o.Status), services.AdminMessageForOrder(o)))
	if c := b.client(ctx, o.ClientID); c != nil {
		b.send(c.TelegramChatID, services.ClientMessageForOrderStatus(o, o.Status))
	}
}

func (b *Bot) client(ctx context.Context, id string) *models.Client {
	c, err := b.store.GetClient(ctx, id)
	if err != nil {
		b.log.WithField("client_id", id).WithError(err).Warn("lookup client")
		return nil
	}
	return c
}

func (b *Bot) courier(ctx context.Context, id string) *models.Courier {
	c, err := b.store.GetCourier(ctx, id)
	if err != nil {
		b.log.WithField("courier_id", id).WithError(err).Warn("lookup courier")
		return nil
	}
	return c
}

func (b *Bot) setBotCommands() error {
	cfg := tgbotapi.SetMyCommandsConfig{
		Commands: []tgbotapi.BotCommand{
			{Command: "start", Description: "Ver su chat id"},
			{Command: "status", Description: "Estado de un pedido"},
		},
	}
	_, err := b.api.Request(cfg)
	return err
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	if b.updates == nil {
		return
	}
	if err := b.setBotCommands(); err != nil {
		b.log.WithError(err).Warn("set bot commands")
	}
	updates := b.updates()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID
	switch {
	case text == "/start":
		b.send(chatID, fmt.Sprintf("Hola. Su chat id es %d. Regístrelo en su perfil para recibir avisos de sus pedidos.", chatID))
	case strings.HasPrefix(text, "/status"):
		b.handleStatus(ctx, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/status")))
	}
}

// handleStatus answers with the status of an order, but only to the chat
// of the client, the courier or the admin.
func (b *Bot) handleStatus(ctx context.Context, chatID int64, orderID string) {
	if orderID == "" {
		b.send(chatID, "Uso: /status <id del pedido>")
		return
	}
	o, err := b.store.GetOrder(ctx, orderID)
	if err != nil {
		b.log.WithField("order_id", orderID).WithError(err).Warn("lookup order")
		b.send(chatID, "Error al consultar el pedido.")
		return
	}
	if o == nil || !b.mayView(ctx, chatID, o) {
		b.send(chatID, "Pedido no encontrado.")
		return
	}
	if chatID == b.admin {
		b.send(chatID, services.AdminMessageForOrder(o))
		return
	}
	b.send(chatID, services.ClientMessageForOrderStatus(o, o.Status))
}

func (b *Bot) mayView(ctx context.Context, chatID int64, o *models.Order) bool {
	if chatID == b.admin {
		return true
	}
	if c := b.client(ctx, o.ClientID); c != nil && c.TelegramChatID == chatID {
		return true
	}
	if o.CourierID != nil {
		if k := b.courier(ctx, *o.CourierID); k != nil && k.TelegramChatID == chatID {
			return true
		}
	}
	return false
}
