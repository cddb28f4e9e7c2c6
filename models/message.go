package models

import "time"

// InboundMessage is a channel-normalized inbound turn.
type InboundMessage struct {
	FromIdentity string `json:"from_identity"`
	BodyText     string `json:"body_text"`
	ProfileName  string `json:"profile_name,omitempty"`
	IsVoice      bool   `json:"is_voice"`
	MediaURL     string `json:"media_url,omitempty"`
}

// ChatTurn is one stored entry of the bounded conversation history.
type ChatTurn struct {
	Role    string    `json:"role"` // "user" or "model"
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
	IsVoice bool      `json:"is_voice,omitempty"`
}

// ReminderPayload is the asynq task body for appointment reminders.
type ReminderPayload struct {
	TenantID      string    `json:"tenant_id"`
	AppointmentID string    `json:"appointment_id"`
	Phone         string    `json:"phone"`
	Body          string    `json:"body"`
	FireAt        time.Time `json:"fire_at"`
}
