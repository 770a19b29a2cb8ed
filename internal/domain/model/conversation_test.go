package model

import (
	"encoding/json"
	"testing"
)

func TestConversationState_WithHelpersCopy(t *testing.T) {
	base := NewConversationState()

	advanced := base.WithPassport([]byte("p1")).WithStage(StageWaitingVehicleDoc)

	if base.Stage != StageWaitingPassport || base.Passport != nil {
		t.Fatalf("base snapshot mutated: %+v", base)
	}
	if advanced.Stage != StageWaitingVehicleDoc || string(advanced.Passport) != "p1" {
		t.Fatalf("derived snapshot wrong: %+v", advanced)
	}
}

func TestConversationState_JSONRoundtrip(t *testing.T) {
	state := NewConversationState().
		WithPassport([]byte{0x01, 0x02}).
		WithStage(StageWaitingPrice)

	b, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got ConversationState
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Stage != StageWaitingPrice || len(got.Passport) != 2 || got.VehicleDoc != nil {
		t.Fatalf("roundtrip lost data: %+v", got)
	}
}

func TestStage_String(t *testing.T) {
	cases := map[Stage]string{
		StageWaitingPassport:   "waiting_passport",
		StageWaitingVehicleDoc: "waiting_vehicle_doc",
		StageWaitingPrice:      "waiting_price",
		StageComplete:          "complete",
		Stage(99):              "unknown",
	}
	for stage, want := range cases {
		if got := stage.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", stage, got, want)
		}
	}
}

func TestNewExtractedData_SubstitutesSentinels(t *testing.T) {
	d := NewExtractedData("Jane", "", "AB123", "")
	if d.Name != "Jane" || d.PassportID != "AB123" {
		t.Fatalf("provided fields replaced: %+v", d)
	}
	if d.Surname != UnknownField || d.VehicleID != UnknownField {
		t.Fatalf("empty fields not substituted: %+v", d)
	}

	all := UnknownExtractedData()
	if all.Name != UnknownField || all.Surname != UnknownField ||
		all.PassportID != UnknownField || all.VehicleID != UnknownField {
		t.Fatalf("UnknownExtractedData incomplete: %+v", all)
	}
}
