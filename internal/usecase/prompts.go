package usecase

import (
	"fmt"

	"telegram-insurance-bot/internal/domain/model"
	"telegram-insurance-bot/internal/domain/ports/adapter"
)

// User-facing texts of the guided flow. Kept in one place so the
// dispatcher and the runner reply with the exact same wording.
const (
	MsgWelcome = "👋 Welcome! I'll help you process your car insurance.\n\n" +
		"Please submit a photo of your Passport first."
	MsgPassportReceived = "✅ Passport received. Now send your vehicle ID document."
	MsgVehicleReceived  = "✅ Vehicle document received."
	MsgExtracting       = "🟣 Extracting data from documents, please wait."
	MsgConfirmed        = "✅ Information Confirmed!"
	MsgPriceOffer       = "The price for car insurance is 100 USD. Do you agree? (Yes/No)"
	MsgResubmit         = "❌ Information Incorrect. Please resubmit your documents."
	MsgPolicyComing     = "🎉 Great! Your policy will be issued shortly."
	MsgClosing          = "✨ Your policy is all set! If you have any questions, just let me know."
	MsgMustAgree        = "❌ Sorry, we can’t proceed without your confirmation.\n" +
		"Please, agree with the price for car insurance of 100 USD.\n\n" +
		"Do you agree? (Yes/No)"
	MsgBadInput          = "❌ Incorrect answer... Please follow instructions!"
	MsgApology           = "🚨 Sorry, something went wrong on our side. Please try again."
	MsgAssistantFallback = "🚨 Sorry, I’m having trouble answering right now."

	PolicyFilename = "CarInsurancePolicy.pdf"
	PolicyCaption  = "Here’s your car insurance policy."

	CallbackConfirmYes = "confirm_yes"
	CallbackConfirmNo  = "confirm_no"
)

// ExtractedSummary formats the OCR result for the confirm-data gate.
func ExtractedSummary(d model.ExtractedData) string {
	return fmt.Sprintf("✅ We extracted the following information:\n"+
		"- Name: %s\n"+
		"- Surname: %s\n"+
		"- Passport IDs: %s\n"+
		"- Vehicle IDs: %s\n\n"+
		"✨ Is this correct?", d.Name, d.Surname, d.PassportID, d.VehicleID)
}

// ConfirmKeyboard is the inline Yes/No keyboard shown with the summary.
func ConfirmKeyboard() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{{
		{Text: "Yes", Data: CallbackConfirmYes},
		{Text: "No", Data: CallbackConfirmNo},
	}}
}
