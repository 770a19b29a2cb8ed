package application

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-insurance-bot/internal/domain/model"
	"telegram-insurance-bot/internal/domain/ports/adapter"
	"telegram-insurance-bot/internal/infra/adapters/assistant"
	"telegram-insurance-bot/internal/infra/adapters/ocr"
	"telegram-insurance-bot/internal/infra/adapters/policy"
	tele "telegram-insurance-bot/internal/infra/adapters/telegram"
	"telegram-insurance-bot/internal/infra/memory"
	"telegram-insurance-bot/internal/infra/worker"
	"telegram-insurance-bot/internal/usecase"
)

// ---- Fakes ----

var _ adapter.Transport = (*fakeTransport)(nil)

type sentDoc struct {
	Filename string
	Caption  string
	Data     []byte
}

type fakeTransport struct {
	mu       sync.Mutex
	messages []string
	buttons  []string
	docs     []sentDoc
	acks     []string
	sendErr  error
}

func (t *fakeTransport) SendMessage(ctx context.Context, chatID int64, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	t.messages = append(t.messages, text)
	return nil
}

func (t *fakeTransport) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	t.buttons = append(t.buttons, text)
	return nil
}

func (t *fakeTransport) SendDocument(ctx context.Context, chatID int64, data []byte, filename, caption string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	t.docs = append(t.docs, sentDoc{Filename: filename, Caption: caption, Data: data})
	return nil
}

func (t *fakeTransport) AckCallback(ctx context.Context, callbackID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.acks = append(t.acks, callbackID)
	return nil
}

func (t *fakeTransport) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	return nil, errors.New("not used in tests")
}

func (t *fakeTransport) lastMessage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.messages) == 0 {
		return ""
	}
	return t.messages[len(t.messages)-1]
}

var _ adapter.DocumentExtractor = (*fakeExtractor)(nil)

type fakeExtractor struct {
	mu    sync.Mutex
	data  model.ExtractedData
	err   error
	calls [][]byte
}

func (e *fakeExtractor) ParsePassport(ctx context.Context, image []byte) (model.ExtractedData, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, image)
	if e.err != nil {
		return model.ExtractedData{}, e.err
	}
	return e.data, nil
}

var _ adapter.PolicyGenerator = (*fakePolicy)(nil)

type fakePolicy struct {
	doc   []byte
	err   error
	calls int
}

func (p *fakePolicy) Generate(ctx context.Context) ([]byte, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.doc, nil
}

var _ adapter.Assistant = (*fakeAssistant)(nil)

type fakeAssistant struct {
	reply string
	err   error
}

func (a *fakeAssistant) Respond(ctx context.Context, userText string, stage model.Stage) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return a.reply, nil
}

type env struct {
	store     *memory.StateStore
	transport *fakeTransport
	extractor *fakeExtractor
	policy    *fakePolicy
	assistant *fakeAssistant
	facade    *BotFacade
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := zerolog.Nop()
	e := &env{
		store:     memory.NewStateStore(),
		transport: &fakeTransport{},
		extractor: &fakeExtractor{data: model.NewExtractedData("John", "Doe", "P-123456", "V-909091")},
		policy:    &fakePolicy{doc: []byte("%PDF-1.4 fake")},
		assistant: &fakeAssistant{reply: "happy to help"},
	}
	facade, err := NewBotFacade(e.store, e.transport, e.extractor, e.policy, e.assistant, &logger)
	if err != nil {
		t.Fatalf("NewBotFacade: %v", err)
	}
	e.facade = facade
	return e
}

func (e *env) mustState(t *testing.T, chatID int64) model.ConversationState {
	t.Helper()
	state, err := e.store.Get(context.Background(), chatID)
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	return state
}

// ---- Tests ----

func TestHandleEvent_FullHappyPath(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	const chatID = int64(42)

	steps := []usecase.Event{
		usecase.CommandEvent{Text: "/start"},
		usecase.PhotoEvent{Image: []byte("passport")},
		usecase.PhotoEvent{Image: []byte("vehicle")},
		usecase.CallbackEvent{ID: "cb1", Data: usecase.CallbackConfirmYes},
		usecase.TextEvent{Text: "yes"},
	}
	for i, ev := range steps {
		if err := e.facade.HandleEvent(ctx, chatID, ev); err != nil {
			t.Fatalf("step %d: HandleEvent: %v", i, err)
		}
	}

	if got := e.mustState(t, chatID).Stage; got != model.StageComplete {
		t.Fatalf("final stage = %v, want Complete", got)
	}
	if len(e.extractor.calls) != 1 || !bytes.Equal(e.extractor.calls[0], []byte("passport")) {
		t.Fatalf("extractor calls = %v, want one call with the passport image", e.extractor.calls)
	}
	if e.policy.calls != 1 {
		t.Fatalf("policy generator called %d times, want 1", e.policy.calls)
	}
	if len(e.transport.docs) != 1 {
		t.Fatalf("documents sent = %d, want 1", len(e.transport.docs))
	}
	doc := e.transport.docs[0]
	if doc.Filename != usecase.PolicyFilename || doc.Caption != usecase.PolicyCaption {
		t.Fatalf("document = %+v", doc)
	}
	if len(e.transport.buttons) != 1 || !strings.Contains(e.transport.buttons[0], "John") {
		t.Fatalf("confirm summary not sent: %v", e.transport.buttons)
	}
	if e.transport.lastMessage() != usecase.MsgClosing {
		t.Fatalf("last message = %q, want closing note", e.transport.lastMessage())
	}
	if len(e.transport.acks) != 1 || e.transport.acks[0] != "cb1" {
		t.Fatalf("acks = %v", e.transport.acks)
	}
}

func TestHandleEvent_ExtractionFailureKeepsStage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	const chatID = int64(7)

	seed := model.NewConversationState().
		WithPassport([]byte("passport")).
		WithStage(model.StageWaitingVehicleDoc)
	if err := e.store.Save(ctx, chatID, seed); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	e.extractor.err = errors.New("ocr service down")

	err := e.facade.HandleEvent(ctx, chatID, usecase.PhotoEvent{Image: []byte("vehicle")})
	if err == nil {
		t.Fatal("expected error from failed extraction")
	}

	state := e.mustState(t, chatID)
	if state.Stage != model.StageWaitingVehicleDoc {
		t.Fatalf("stage = %v, want WaitingVehicleDoc (state must not advance)", state.Stage)
	}
	if !bytes.Equal(state.Passport, []byte("passport")) {
		t.Fatal("passport image lost on failure")
	}
	if state.VehicleDoc != nil {
		t.Fatal("vehicle image persisted despite failure")
	}
	if e.transport.lastMessage() != usecase.MsgApology {
		t.Fatalf("last message = %q, want apology", e.transport.lastMessage())
	}
}

func TestHandleEvent_RetryAfterExtractionFailureSucceeds(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	const chatID = int64(7)

	seed := model.NewConversationState().
		WithPassport([]byte("passport")).
		WithStage(model.StageWaitingVehicleDoc)
	if err := e.store.Save(ctx, chatID, seed); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	e.extractor.err = errors.New("ocr service down")
	_ = e.facade.HandleEvent(ctx, chatID, usecase.PhotoEvent{Image: []byte("vehicle")})

	e.extractor.err = nil
	if err := e.facade.HandleEvent(ctx, chatID, usecase.PhotoEvent{Image: []byte("vehicle")}); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if got := e.mustState(t, chatID).Stage; got != model.StageWaitingPrice {
		t.Fatalf("stage after retry = %v, want WaitingPrice", got)
	}
}

func TestHandleEvent_PolicyFailureKeepsStage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	const chatID = int64(9)

	seed := model.NewConversationState().WithStage(model.StageWaitingPrice)
	if err := e.store.Save(ctx, chatID, seed); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	e.policy.err = errors.New("renderer broken")

	if err := e.facade.HandleEvent(ctx, chatID, usecase.TextEvent{Text: "yes"}); err == nil {
		t.Fatal("expected error from failed generation")
	}
	if got := e.mustState(t, chatID).Stage; got != model.StageWaitingPrice {
		t.Fatalf("stage = %v, want WaitingPrice (user can agree again)", got)
	}
	if e.transport.lastMessage() != usecase.MsgApology {
		t.Fatalf("last message = %q, want apology", e.transport.lastMessage())
	}
}

func TestHandleEvent_AssistantFailureSendsFallback(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	const chatID = int64(11)

	e.assistant.err = errors.New("model overloaded")

	if err := e.facade.HandleEvent(ctx, chatID, usecase.TextEvent{Text: "what is covered?"}); err != nil {
		t.Fatalf("assistant failure must not bubble: %v", err)
	}
	if e.transport.lastMessage() != usecase.MsgAssistantFallback {
		t.Fatalf("last message = %q, want fallback", e.transport.lastMessage())
	}
	if got := e.mustState(t, chatID).Stage; got != model.StageWaitingPassport {
		t.Fatalf("stage = %v, want WaitingPassport", got)
	}
}

func TestHandleEvent_CancelledSendIsNotAFault(t *testing.T) {
	e := newEnv(t)
	const chatID = int64(13)

	e.transport.sendErr = context.Canceled

	if err := e.facade.HandleEvent(context.Background(), chatID, usecase.CommandEvent{Text: "/start"}); err != nil {
		t.Fatalf("cancellation treated as fault: %v", err)
	}
	if len(e.transport.messages) != 0 {
		t.Fatalf("messages sent after cancellation: %v", e.transport.messages)
	}
}

func TestHandleEvent_ConfirmNoResets(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	const chatID = int64(21)

	seed := model.NewConversationState().
		WithPassport([]byte("p1")).
		WithVehicleDoc([]byte("p2")).
		WithStage(model.StageWaitingPrice)
	if err := e.store.Save(ctx, chatID, seed); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := e.facade.HandleEvent(ctx, chatID, usecase.CallbackEvent{ID: "cb", Data: usecase.CallbackConfirmNo}); err != nil {
			t.Fatalf("round %d: %v", i, err)
		}
		state := e.mustState(t, chatID)
		if state.Stage != model.StageWaitingPassport || state.Passport != nil || state.VehicleDoc != nil {
			t.Fatalf("round %d: state not reset: %+v", i, state)
		}
		if e.transport.lastMessage() != usecase.MsgResubmit {
			t.Fatalf("round %d: last message = %q", i, e.transport.lastMessage())
		}
	}
}

// Events submitted through the keyed pool for one chat must be applied in
// submission order even while other chats are being handled concurrently.
func TestHandleEvent_OrderedPerConversation(t *testing.T) {
	e := newEnv(t)
	logger := zerolog.Nop()
	pool := worker.NewKeyedPool(4, 64, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	const chatID = int64(42)
	steps := []usecase.Event{
		usecase.CommandEvent{Text: "/start"},
		usecase.PhotoEvent{Image: []byte("passport")},
		usecase.PhotoEvent{Image: []byte("vehicle")},
		usecase.CallbackEvent{ID: "cb1", Data: usecase.CallbackConfirmYes},
		usecase.TextEvent{Text: "yes"},
	}

	var wg sync.WaitGroup
	submit := func(id int64, ev usecase.Event) {
		wg.Add(1)
		if err := pool.Submit(ctx, id, func(ctx context.Context) error {
			defer wg.Done()
			return e.facade.HandleEvent(ctx, id, ev)
		}); err != nil {
			wg.Done()
			t.Errorf("submit: %v", err)
		}
	}

	// Interleave noise conversations with the one under test.
	for i, ev := range steps {
		submit(chatID, ev)
		noise := int64(1000 + i)
		submit(noise, usecase.TextEvent{Text: "hello"})
		submit(noise, usecase.PhotoEvent{Image: []byte("x")})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pool")
	}

	if got := e.mustState(t, chatID).Stage; got != model.StageComplete {
		t.Fatalf("final stage = %v, want Complete", got)
	}
	if e.policy.calls != 1 {
		t.Fatalf("policy generator called %d times, want 1", e.policy.calls)
	}
}

// Smoke test over the dev collaborators: the whole flow runs end to end
// with nothing but process-local implementations.
func TestHandleEvent_DevCollaboratorsSmoke(t *testing.T) {
	if testing.Short() {
		t.Skip("noop collaborators sleep between sends")
	}
	logger := zerolog.Nop()
	store := memory.NewStateStore()
	facade, err := NewBotFacade(
		store,
		tele.NewNoopTransport(&logger),
		ocr.NewNoopExtractor(),
		policy.NewPDFGenerator(),
		assistant.NewNoopAssistant(),
		&logger,
	)
	if err != nil {
		t.Fatalf("NewBotFacade: %v", err)
	}

	ctx := context.Background()
	const chatID = int64(1)
	steps := []usecase.Event{
		usecase.CommandEvent{Text: "/start"},
		usecase.TextEvent{Text: "hi, how does this work?"},
		usecase.PhotoEvent{Image: []byte("passport")},
		usecase.PhotoEvent{Image: []byte("vehicle")},
		usecase.CallbackEvent{ID: "cb", Data: usecase.CallbackConfirmYes},
		usecase.TextEvent{Text: "Yes"},
	}
	for i, ev := range steps {
		if err := facade.HandleEvent(ctx, chatID, ev); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	state, err := store.Get(ctx, chatID)
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if state.Stage != model.StageComplete {
		t.Fatalf("final stage = %v, want Complete", state.Stage)
	}
}

func TestNewBotFacade_RejectsNilCollaborators(t *testing.T) {
	logger := zerolog.Nop()
	store := memory.NewStateStore()
	tr := &fakeTransport{}
	ex := &fakeExtractor{}
	po := &fakePolicy{}
	as := &fakeAssistant{}

	cases := []struct {
		name string
		err  func() error
	}{
		{"nil store", func() error { _, err := NewBotFacade(nil, tr, ex, po, as, &logger); return err }},
		{"nil transport", func() error { _, err := NewBotFacade(store, nil, ex, po, as, &logger); return err }},
		{"nil extractor", func() error { _, err := NewBotFacade(store, tr, nil, po, as, &logger); return err }},
		{"nil policy", func() error { _, err := NewBotFacade(store, tr, ex, nil, as, &logger); return err }},
		{"nil assistant", func() error { _, err := NewBotFacade(store, tr, ex, po, nil, &logger); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err() == nil {
				t.Fatal("expected constructor error")
			}
		})
	}
}
