package usecase

import (
	"strings"

	"telegram-insurance-bot/internal/domain/model"
	"telegram-insurance-bot/internal/domain/ports/adapter"
)

// Event is an inbound update, already normalized by the transport.
// Photo events carry the downloaded bytes of the largest attachment;
// the transport discards the rest of a multi-attachment upload.
type Event interface{ isEvent() }

type CommandEvent struct{ Text string }

type TextEvent struct{ Text string }

type PhotoEvent struct{ Image []byte }

type CallbackEvent struct {
	ID   string
	Data string
}

// UnsupportedEvent stands in for update kinds the flow has no use for
// (stickers, voice notes, locations). It always falls through to the
// generic instruction reply.
type UnsupportedEvent struct{}

func (CommandEvent) isEvent()     {}
func (TextEvent) isEvent()        {}
func (PhotoEvent) isEvent()       {}
func (CallbackEvent) isEvent()    {}
func (UnsupportedEvent) isEvent() {}

// Action is a side effect the runner must execute. Collaborator-backed
// actions (extraction, generation, delegation) may fail; plain replies
// only fail on transport errors.
type Action interface{ isAction() }

// Reply sends a plain text message.
type Reply struct{ Text string }

// ReplyChoice sends a text message with inline buttons.
type ReplyChoice struct {
	Text string
	Rows [][]adapter.InlineButton
}

// RequestExtraction runs OCR on the stored passport image; on success the
// runner replies with the extracted summary and the confirm keyboard.
type RequestExtraction struct{ Image []byte }

// RequestGeneration renders the policy document, sends it, and closes the
// flow with the final message.
type RequestGeneration struct{}

// SendDocument uploads a generated document to the conversation.
type SendDocument struct {
	Data     []byte
	Filename string
	Caption  string
}

// Delegate routes free text to the stage-aware assistant.
type Delegate struct {
	Text  string
	Stage model.Stage
}

// Ack stops the inline-button spinner for a handled callback.
type Ack struct{ CallbackID string }

func (Reply) isAction()             {}
func (ReplyChoice) isAction()       {}
func (RequestExtraction) isAction() {}
func (RequestGeneration) isAction() {}
func (SendDocument) isAction()      {}
func (Delegate) isAction()          {}
func (Ack) isAction()               {}

// Decide maps an inbound event plus the current conversation state to the
// actions to perform and the next state. It is pure and total: no I/O, no
// mutation of the input snapshot, and every stage/event combination
// resolves to something (the default being the instruction reply with the
// state left unchanged).
//
// Tie-breaks: a photo always wins over any text routing. Text that is
// exactly "yes"/"no" (case-insensitive) or starts with "/" goes through
// the stage table; all other text is delegated to the assistant
// regardless of stage.
func Decide(ev Event, state model.ConversationState) (model.ConversationState, []Action) {
	switch e := ev.(type) {
	case PhotoEvent:
		return decidePhoto(e, state)
	case CallbackEvent:
		return decideCallback(e, state)
	case TextEvent:
		return decideText(e, state)
	case CommandEvent:
		if strings.TrimSpace(e.Text) == "/start" {
			return model.NewConversationState(), []Action{Reply{Text: MsgWelcome}}
		}
		return state, []Action{Reply{Text: MsgBadInput}}
	default:
		return state, []Action{Reply{Text: MsgBadInput}}
	}
}

func decidePhoto(e PhotoEvent, state model.ConversationState) (model.ConversationState, []Action) {
	switch state.Stage {
	case model.StageWaitingPassport:
		next := state.WithPassport(e.Image).WithStage(model.StageWaitingVehicleDoc)
		return next, []Action{Reply{Text: MsgPassportReceived}}

	case model.StageWaitingVehicleDoc:
		next := state.WithVehicleDoc(e.Image).WithStage(model.StageWaitingPrice)
		return next, []Action{
			Reply{Text: MsgVehicleReceived},
			Reply{Text: MsgExtracting},
			// Extraction runs on the passport stored at the previous step.
			RequestExtraction{Image: state.Passport},
		}

	default:
		return state, []Action{Reply{Text: MsgBadInput}}
	}
}

func decideCallback(e CallbackEvent, state model.ConversationState) (model.ConversationState, []Action) {
	ack := Ack{CallbackID: e.ID}
	switch e.Data {
	case CallbackConfirmYes:
		if state.Stage == model.StageWaitingPrice {
			return state, []Action{ack, Reply{Text: MsgConfirmed}, Reply{Text: MsgPriceOffer}}
		}
		return state, []Action{ack, Reply{Text: MsgBadInput}}

	case CallbackConfirmNo:
		// Restart document collection from scratch, whatever the stage.
		return model.NewConversationState(), []Action{ack, Reply{Text: MsgResubmit}}

	default:
		return state, []Action{ack, Reply{Text: MsgBadInput}}
	}
}

func decideText(e TextEvent, state model.ConversationState) (model.ConversationState, []Action) {
	text := strings.TrimSpace(e.Text)
	yes := strings.EqualFold(text, "yes")
	no := strings.EqualFold(text, "no")

	if !yes && !no {
		return state, []Action{Delegate{Text: e.Text, Stage: state.Stage}}
	}

	if state.Stage == model.StageWaitingPrice {
		if yes {
			next := state.WithStage(model.StageComplete)
			return next, []Action{Reply{Text: MsgPolicyComing}, RequestGeneration{}}
		}
		return state, []Action{Reply{Text: MsgMustAgree}}
	}

	// yes/no outside the price gate has no stage-specific meaning.
	return state, []Action{Reply{Text: MsgBadInput}}
}
