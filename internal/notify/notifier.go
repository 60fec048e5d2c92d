package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ema_pricer/internal/models"
	pricer "ema_pricer/internal/modules/pricer/service"
	"ema_pricer/pkg/ema"
	"ema_pricer/pkg/logger"
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Telegram: сервисные сообщения + команды /price и /prices.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	reg    *pricer.Registry
}

func NewTelegram(token string, chatID int64, reg *pricer.Registry) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
		reg:    reg,
	}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		logger.Warn("[TG] send: %v", err)
	}
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// Start: long-polling, отвечаем только своему чату.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil || t.bot == nil {
		return nil
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				if upd.Message == nil || upd.Message.Chat == nil ||
					upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
					continue
				}
				t.Send(t.answer(upd.Message.Command(), upd.Message.CommandArguments()))
			}
		}
	}()
	return nil
}

func (t *Telegram) Stop() {
	if t == nil || t.bot == nil {
		return
	}
	t.bot.StopReceivingUpdates()
}

func (t *Telegram) answer(cmd, args string) string {
	switch cmd {
	case "price":
		product := strings.TrimSpace(args)
		if product == "" {
			return "Использование: /price KELP"
		}
		q, err := t.reg.Quote(product)
		if errors.Is(err, ema.ErrNotInitialized) {
			return fmt.Sprintf("📭 %s: цен ещё не было", strings.ToUpper(product))
		}
		if err != nil {
			return fmt.Sprintf("❗️ %v", err)
		}
		return formatQuote(q)
	case "prices":
		return formatQuotes(t.reg.Quotes())
	default:
		return "Команды: /price <PRODUCT>, /prices"
	}
}

func formatQuote(q models.Quote) string {
	return fmt.Sprintf("%s: %.4f (alpha=%.3f, n=%d)", q.Product, q.AcceptablePrice, q.Alpha, q.Samples)
}

func formatQuotes(qs []models.Quote) string {
	if len(qs) == 0 {
		return "📭 Цен пока нет"
	}
	var b strings.Builder
	b.WriteString("📊 Приемлемые цены:\n")
	for _, q := range qs {
		b.WriteString("- ")
		b.WriteString(formatQuote(q))
		b.WriteString("\n")
	}
	return b.String()
}

// Stdout: заглушка без Telegram, всё в лог.
type Stdout struct{}

func NewStdout() *Stdout                           { return &Stdout{} }
func (s *Stdout) Send(msg string)                  { logger.Info("%s", msg) }
func (s *Stdout) Sendf(format string, args ...any) { logger.Info(format, args...) }
