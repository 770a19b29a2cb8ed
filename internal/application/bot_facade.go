package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-insurance-bot/internal/domain/ports/adapter"
	"telegram-insurance-bot/internal/domain/ports/repository"
	"telegram-insurance-bot/internal/infra/logging"
	"telegram-insurance-bot/internal/infra/metrics"
	"telegram-insurance-bot/internal/usecase"
)

// BotFacade is the runner behind the transport: it loads conversation
// state, lets the dispatcher decide, executes the resulting actions
// against the collaborators, and persists the next snapshot.
//
// It is the only writer to the store. Callers must serialize invocations
// per chat id (the keyed worker pool does); distinct chats may be handled
// concurrently.
type BotFacade struct {
	store     repository.ConversationStore
	transport adapter.Transport
	extractor adapter.DocumentExtractor
	policy    adapter.PolicyGenerator
	assistant adapter.Assistant
	log       *zerolog.Logger
}

func NewBotFacade(
	store repository.ConversationStore,
	transport adapter.Transport,
	extractor adapter.DocumentExtractor,
	policy adapter.PolicyGenerator,
	assistant adapter.Assistant,
	logger *zerolog.Logger,
) (*BotFacade, error) {
	if store == nil {
		return nil, errors.New("conversation store is nil")
	}
	if transport == nil {
		return nil, errors.New("transport is nil")
	}
	if extractor == nil {
		return nil, errors.New("document extractor is nil")
	}
	if policy == nil {
		return nil, errors.New("policy generator is nil")
	}
	if assistant == nil {
		return nil, errors.New("assistant is nil")
	}
	return &BotFacade{
		store:     store,
		transport: transport,
		extractor: extractor,
		policy:    policy,
		assistant: assistant,
		log:       logger,
	}, nil
}

// HandleEvent processes one inbound event for one conversation. Any fault
// is contained here: the user gets a generic apology, the state stays
// unchanged so the last action can be retried, and the error is returned
// for logging only; it never stops the event loop.
func (b *BotFacade) HandleEvent(ctx context.Context, chatID int64, ev usecase.Event) (err error) {
	ctx = logging.WithChatID(logging.WithTraceID(ctx, uuid.NewString()), chatID)
	log := logging.With(ctx, b.log)
	defer logging.TraceDuration(log, "BotFacade.HandleEvent")()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while handling event: %v", r)
			log.Error().Err(err).Msg("recovered")
			b.apologize(ctx, chatID)
		}
	}()

	metrics.IncUpdate(eventKind(ev))

	state, err := b.store.Get(ctx, chatID)
	if err != nil {
		log.Error().Err(err).Msg("load state")
		b.apologize(ctx, chatID)
		return fmt.Errorf("load state: %w", err)
	}

	next, actions := usecase.Decide(ev, state)

	for _, action := range actions {
		if err := b.execute(ctx, log, chatID, action); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Debug().Msg("event handling cancelled")
				return nil
			}
			log.Error().Err(err).Str("stage", state.Stage.String()).Msg("action failed")
			// State intentionally not saved: the user retries by
			// re-sending the last message.
			b.apologize(ctx, chatID)
			return err
		}
	}

	if next.Stage != state.Stage {
		metrics.IncStageTransition(state.Stage.String(), next.Stage.String())
		log.Debug().Str("from", state.Stage.String()).Str("to", next.Stage.String()).Msg("stage transition")
	}
	if err := b.store.Save(ctx, chatID, next); err != nil {
		log.Error().Err(err).Msg("save state")
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (b *BotFacade) execute(ctx context.Context, log *zerolog.Logger, chatID int64, action usecase.Action) error {
	switch a := action.(type) {
	case usecase.Reply:
		return b.transport.SendMessage(ctx, chatID, a.Text)

	case usecase.ReplyChoice:
		return b.transport.SendButtons(ctx, chatID, a.Text, a.Rows)

	case usecase.Ack:
		// A missed spinner stop is cosmetic; never fail the event on it.
		if err := b.transport.AckCallback(ctx, a.CallbackID); err != nil {
			log.Warn().Err(err).Msg("ack callback")
		}
		return nil

	case usecase.RequestExtraction:
		start := time.Now()
		data, err := b.extractor.ParsePassport(ctx, a.Image)
		metrics.ObserveExtraction(int(time.Since(start).Milliseconds()), err == nil)
		if err != nil {
			metrics.IncCollabFailure("ocr")
			return fmt.Errorf("parse passport: %w", err)
		}
		return b.execute(ctx, log, chatID, usecase.ReplyChoice{
			Text: usecase.ExtractedSummary(data),
			Rows: usecase.ConfirmKeyboard(),
		})

	case usecase.RequestGeneration:
		doc, err := b.policy.Generate(ctx)
		if err != nil {
			metrics.IncCollabFailure("policy")
			return fmt.Errorf("generate policy: %w", err)
		}
		if err := b.execute(ctx, log, chatID, usecase.SendDocument{
			Data:     doc,
			Filename: usecase.PolicyFilename,
			Caption:  usecase.PolicyCaption,
		}); err != nil {
			return err
		}
		return b.transport.SendMessage(ctx, chatID, usecase.MsgClosing)

	case usecase.SendDocument:
		return b.transport.SendDocument(ctx, chatID, a.Data, a.Filename, a.Caption)

	case usecase.Delegate:
		reply, err := b.assistant.Respond(ctx, a.Text, a.Stage)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			metrics.IncCollabFailure("assistant")
			log.Warn().Err(err).Msg("assistant failed, sending fallback")
			reply = usecase.MsgAssistantFallback
		}
		return b.transport.SendMessage(ctx, chatID, reply)

	default:
		return fmt.Errorf("unknown action %T", action)
	}
}

func (b *BotFacade) apologize(ctx context.Context, chatID int64) {
	if ctx.Err() != nil {
		return
	}
	if err := b.transport.SendMessage(ctx, chatID, usecase.MsgApology); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("apology not delivered")
	}
}

func eventKind(ev usecase.Event) string {
	switch ev.(type) {
	case usecase.CommandEvent:
		return "command"
	case usecase.TextEvent:
		return "text"
	case usecase.PhotoEvent:
		return "photo"
	case usecase.CallbackEvent:
		return "callback"
	default:
		return "unsupported"
	}
}
