package webhook

import "strings"

// Wire types for the WhatsApp Cloud API webhook payload. Only the fields the
// relay acts on are modeled; everything else is ignored by the decoder.

// Message is one inbound message entry.
type Message struct {
	ID          string       `json:"id"`
	From        string       `json:"from"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *Text        `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
}

// Text carries the body of a text message.
type Text struct {
	Body string `json:"body"`
}

// Interactive carries interactive message payloads (buttons, lists, call
// permission replies).
type Interactive struct {
	Type                string               `json:"type"`
	CallPermissionReply *CallPermissionReply `json:"call_permission_reply,omitempty"`
}

// CallPermissionReply is the user's answer to a call permission request.
type CallPermissionReply struct {
	Response            string `json:"response"`
	IsPermanent         bool   `json:"is_permanent,omitempty"`
	ExpirationTimestamp int64  `json:"expiration_timestamp,omitempty"`
}

// Contact enriches a message with sender profile data.
type Contact struct {
	WaID    string   `json:"wa_id"`
	Profile *Profile `json:"profile,omitempty"`
}

// Profile is the sender's WhatsApp profile.
type Profile struct {
	Name string `json:"name"`
}

// Status is a delivery/read receipt for a previously sent message.
type Status struct {
	Status      string `json:"status"`
	RecipientID string `json:"recipient_id"`
	ID          string `json:"id"`
}

// Event is the normalized view of one webhook delivery. Nil slices mean the
// corresponding section was absent from every known nesting shape.
type Event struct {
	Messages []Message
	Contacts []Contact
	Statuses []Status
}

// FirstMessage returns the first message of the event, or nil.
func (e Event) FirstMessage() *Message {
	if len(e.Messages) == 0 {
		return nil
	}
	return &e.Messages[0]
}

// Sender returns the conversation partner id: the contact wa_id when present,
// falling back to the message-embedded sender.
func (e Event) Sender() string {
	if len(e.Contacts) > 0 && e.Contacts[0].WaID != "" {
		return e.Contacts[0].WaID
	}
	if m := e.FirstMessage(); m != nil {
		return m.From
	}
	return ""
}

// FirstName returns the first whitespace-delimited token of the contact
// profile name, or the empty string when no profile is available.
func (e Event) FirstName() string {
	if len(e.Contacts) == 0 || e.Contacts[0].Profile == nil {
		return ""
	}
	fields := strings.Fields(e.Contacts[0].Profile.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
