package assistant

import "telegram-insurance-bot/internal/domain/model"

// systemPrompt is shared by every provider so switching providers does
// not change the bot's voice. The stage hint keeps answers anchored to
// where the user is in the flow.
func systemPrompt(stage model.Stage) string {
	base := "You are a helpful assistant for a car insurance company. " +
		"Answer the user's question politely and clearly. " +
		"If you are unsure about the answer, apologize and suggest calling the support line. " +
		"Keep the tone friendly and concise."
	return base + " " + stageHint(stage)
}

func stageHint(stage model.Stage) string {
	switch stage {
	case model.StageWaitingPassport:
		return "The user is currently expected to submit a photo of their passport."
	case model.StageWaitingVehicleDoc:
		return "The user has submitted a passport and is now expected to submit their vehicle ID document."
	case model.StageWaitingPrice:
		return "The user has been offered car insurance for 100 USD and should answer Yes or No."
	case model.StageComplete:
		return "The user's policy has already been issued; help with any follow-up questions."
	default:
		return "Guide the user back to the insurance flow."
	}
}
