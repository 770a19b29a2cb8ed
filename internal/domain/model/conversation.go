package model

// Stage is the discrete step of the guided insurance flow a conversation
// currently occupies. It is a closed enumeration; every switch over Stage
// must carry a default arm so unmatched combinations fall through to the
// generic instruction reply instead of failing.
type Stage int

const (
	StageWaitingPassport Stage = iota
	StageWaitingVehicleDoc
	StageWaitingPrice
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageWaitingPassport:
		return "waiting_passport"
	case StageWaitingVehicleDoc:
		return "waiting_vehicle_doc"
	case StageWaitingPrice:
		return "waiting_price"
	case StageComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// ConversationState is an immutable snapshot of one conversation.
// Updates go through the With* helpers, which copy the value; the store
// publishes a whole snapshot atomically so a reader never observes a
// partially-updated record.
type ConversationState struct {
	Stage      Stage  `json:"stage"`
	Passport   []byte `json:"passport,omitempty"`
	VehicleDoc []byte `json:"vehicle_doc,omitempty"`
}

// NewConversationState returns the default state for an unseen conversation.
func NewConversationState() ConversationState {
	return ConversationState{Stage: StageWaitingPassport}
}

func (s ConversationState) WithStage(stage Stage) ConversationState {
	s.Stage = stage
	return s
}

func (s ConversationState) WithPassport(img []byte) ConversationState {
	s.Passport = img
	return s
}

func (s ConversationState) WithVehicleDoc(img []byte) ConversationState {
	s.VehicleDoc = img
	return s
}
