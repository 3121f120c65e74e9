package webhook

import "strings"

// Classification is the terminal category assigned to one normalized event.
// Only ClassActionableText proceeds to reply generation.
type Classification int

const (
	// ClassStatus is a delivery/read receipt; checked before any message.
	ClassStatus Classification = iota
	// ClassEmpty is an event with no processable message.
	ClassEmpty
	// ClassCallPermission is a call permission interactive reply.
	ClassCallPermission
	// ClassInteractiveOther covers remaining interactive subtypes (buttons,
	// lists). Kept terminal until upstream decides how to route them.
	ClassInteractiveOther
	// ClassUnsupportedType is any non-text message type (media, location...).
	ClassUnsupportedType
	// ClassEmptyText is a text message with a blank or missing body.
	ClassEmptyText
	// ClassActionableText is a text message with a non-empty body.
	ClassActionableText
)

func (c Classification) String() string {
	switch c {
	case ClassStatus:
		return "status"
	case ClassEmpty:
		return "empty"
	case ClassCallPermission:
		return "call_permission"
	case ClassInteractiveOther:
		return "interactive_other"
	case ClassUnsupportedType:
		return "unsupported_type"
	case ClassEmptyText:
		return "empty_text"
	case ClassActionableText:
		return "actionable_text"
	default:
		return "unknown"
	}
}

// Classify assigns an event to exactly one classification using a fixed
// precedence: statuses first at the whole-event level, then per-message
// dispatch on the first message.
func Classify(ev Event) Classification {
	if len(ev.Statuses) > 0 {
		return ClassStatus
	}

	msg := ev.FirstMessage()
	if msg == nil {
		return ClassEmpty
	}

	if msg.Type == "interactive" && msg.Interactive != nil {
		if msg.Interactive.Type == "call_permission_reply" {
			return ClassCallPermission
		}
		return ClassInteractiveOther
	}

	if msg.Type != "text" {
		return ClassUnsupportedType
	}

	if msg.Text == nil || strings.TrimSpace(msg.Text.Body) == "" {
		return ClassEmptyText
	}

	return ClassActionableText
}
