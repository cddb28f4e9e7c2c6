package utils

import "time"

const (
	// MaxInteractions is the per-(tenant, contact) interaction budget. Once a
	// conversation crosses it without reaching a resolved booking state, the
	// governor hands it to a human.
	MaxInteractions = 10

	// StickinessWindow keeps a multi-tenant contact routed to the tenant they
	// last talked to, without re-asking.
	StickinessWindow = 30 * time.Minute

	// MaxToolRounds bounds the model turn loop regardless of errors.
	MaxToolRounds = 5

	// ToolErrorBudget is the number of failed tool invocations in a single
	// turn after which the loop aborts and the conversation is paused.
	ToolErrorBudget = 2

	// HistoryWindow is the number of chat turns kept per conversation.
	HistoryWindow = 20

	// ReminderLead is how long before an appointment the reminder fires.
	ReminderLead = time.Hour
)

// FallbackReply is the fixed user-safe response returned whenever the
// pipeline cannot produce a trustworthy answer.
const FallbackReply = "Sorry, something went wrong on our side. A member of the team will get back to you shortly."
