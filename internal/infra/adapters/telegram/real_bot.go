package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-insurance-bot/internal/config"
	"telegram-insurance-bot/internal/domain/ports/adapter"
	red "telegram-insurance-bot/internal/infra/redis"
	"telegram-insurance-bot/internal/infra/worker"
	"telegram-insurance-bot/internal/usecase"
)

// EventHandler receives one normalized event per inbound update.
type EventHandler func(ctx context.Context, chatID int64, ev usecase.Event) error

// RealTransport uses tgbotapi to poll updates, normalizes them to domain
// events, and hands them to the runner through a keyed worker pool so
// events for one chat are processed in arrival order.
type RealTransport struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	pool        *worker.KeyedPool
	rateLimiter *red.RateLimiter // optional
	http        *http.Client
	log         *zerolog.Logger

	cancelPolling context.CancelFunc
}

var _ adapter.Transport = (*RealTransport)(nil)

func NewRealTransport(cfg *config.BotConfig, rateLimiter *red.RateLimiter, logger *zerolog.Logger) (*RealTransport, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	return &RealTransport{
		bot:         bot,
		cfg:         cfg,
		pool:        worker.NewKeyedPool(cfg.Workers, cfg.QueueDepth, logger),
		rateLimiter: rateLimiter,
		http:        &http.Client{Timeout: 60 * time.Second},
		log:         logger,
	}, nil
}

// StartPolling blocks until ctx is cancelled or StopPolling is called.
func (t *RealTransport) StartPolling(ctx context.Context, handle EventHandler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	t.cancelPolling = cancel

	t.pool.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			t.pool.Stop()
			return ctx.Err()
		case up := <-updates:
			chatID, ok := updateChatID(up)
			if !ok {
				continue
			}
			if err := t.pool.Submit(ctx, chatID, func(ctx context.Context) error {
				return t.handleUpdate(ctx, chatID, up, handle)
			}); err != nil {
				if errors.Is(err, worker.ErrPoolStopped) || errors.Is(err, context.Canceled) {
					continue
				}
				t.log.Error().Err(err).Int64("chat_id", chatID).Msg("submit update")
			}
		}
	}
}

func (t *RealTransport) StopPolling() {
	if t.cancelPolling != nil {
		t.cancelPolling()
	}
}

func (t *RealTransport) handleUpdate(ctx context.Context, chatID int64, up tgbotapi.Update, handle EventHandler) error {
	if !t.allow(ctx, chatID, up) {
		return t.SendMessage(ctx, chatID, "Rate limit exceeded. Please try again later.")
	}

	ev, err := t.toEvent(ctx, up)
	if err != nil {
		// Download failures land here; the runner never saw the event,
		// so tell the user to re-send instead of staying silent.
		t.log.Warn().Err(err).Int64("chat_id", chatID).Msg("normalize update")
		return t.SendMessage(ctx, chatID, usecase.MsgApology)
	}
	return handle(ctx, chatID, ev)
}

// allow applies a light per-chat rate limit: 20 messages and 30 callback
// presses per minute, like most public bots.
func (t *RealTransport) allow(ctx context.Context, chatID int64, up tgbotapi.Update) bool {
	if t.rateLimiter == nil {
		return true
	}
	kind, limit := "message", 20
	if up.CallbackQuery != nil {
		kind, limit = "callback", 30
	}
	allowed, err := t.rateLimiter.Allow(ctx, red.ChatEventKey(chatID, kind), limit, time.Minute)
	if err != nil {
		t.log.Warn().Err(err).Msg("rate limiter unavailable, allowing")
		return true
	}
	return allowed
}

// toEvent normalizes a Telegram update into a dispatcher event. A photo
// takes precedence over any caption text; only the largest size variant
// of the newest attachment is downloaded.
func (t *RealTransport) toEvent(ctx context.Context, up tgbotapi.Update) (usecase.Event, error) {
	if cb := up.CallbackQuery; cb != nil {
		return usecase.CallbackEvent{ID: cb.ID, Data: strings.TrimSpace(cb.Data)}, nil
	}

	msg := up.Message
	if msg == nil {
		return usecase.UnsupportedEvent{}, nil
	}

	if len(msg.Photo) > 0 {
		img, err := t.DownloadFile(ctx, largestPhoto(msg.Photo).FileID)
		if err != nil {
			return nil, fmt.Errorf("download photo: %w", err)
		}
		return usecase.PhotoEvent{Image: img}, nil
	}

	if msg.Text != "" {
		if strings.HasPrefix(msg.Text, "/") {
			return usecase.CommandEvent{Text: msg.Text}, nil
		}
		return usecase.TextEvent{Text: msg.Text}, nil
	}

	return usecase.UnsupportedEvent{}, nil
}

// largestPhoto picks the biggest size variant Telegram offered.
// The API sends them smallest-first, but don't rely on that.
func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best
}

func updateChatID(up tgbotapi.Update) (int64, bool) {
	if up.Message != nil && up.Message.Chat != nil {
		return up.Message.Chat.ID, true
	}
	if cb := up.CallbackQuery; cb != nil {
		if cb.Message != nil && cb.Message.Chat != nil {
			return cb.Message.Chat.ID, true
		}
		if cb.From != nil {
			return cb.From.ID, true
		}
	}
	return 0, false
}

func (t *RealTransport) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (t *RealTransport) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			r = append(r, kb)
		}
		kbRows = append(kbRows, r)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	_, err := t.bot.Send(msg)
	return err
}

func (t *RealTransport) SendDocument(ctx context.Context, chatID int64, data []byte, filename, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	doc.Caption = caption
	_, err := t.bot.Send(doc)
	return err
}

func (t *RealTransport) AckCallback(ctx context.Context, callbackID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Request(tgbotapi.NewCallback(callbackID, ""))
	return err
}

// DownloadFile fetches file bytes through the bot file API. The request
// carries ctx so StopPolling aborts in-flight downloads.
func (t *RealTransport) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	f, err := t.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.Link(t.bot.Token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download http %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
