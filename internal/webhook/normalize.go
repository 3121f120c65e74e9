package webhook

import "encoding/json"

// The Cloud API delivers the (messages, contacts, statuses) triple under
// several nesting shapes depending on the subscription and relay in front of
// it. Normalize resolves each field through an ordered list of extraction
// strategies; the first shape that defines a field wins for that field, even
// when the defined value is empty.

type envelope struct {
	Entry   []entryEnvelope  `json:"entry"`
	Changes []changeEnvelope `json:"changes"`
	Value   *valueEnvelope   `json:"value"`
}

type entryEnvelope struct {
	Changes []changeEnvelope `json:"changes"`
}

type changeEnvelope struct {
	Value *valueEnvelope `json:"value"`
}

type valueEnvelope struct {
	Messages []Message `json:"messages"`
	Contacts []Contact `json:"contacts"`
	Statuses []Status  `json:"statuses"`
}

// Normalize extracts the canonical event triple from a raw webhook body. It
// never fails: malformed JSON or an unknown shape yields a zero-value Event,
// which classifies as an empty event downstream.
func Normalize(body []byte) Event {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}
	}

	var ev Event
	for _, v := range extractionChain(env) {
		if v == nil {
			continue
		}
		if ev.Messages == nil {
			ev.Messages = v.messages
		}
		if ev.Contacts == nil {
			ev.Contacts = v.contacts
		}
		if ev.Statuses == nil {
			ev.Statuses = v.statuses
		}
	}
	return ev
}

// candidate is one resolved nesting shape. A nil slice means the field was
// absent at that shape; an empty non-nil slice counts as defined.
type candidate struct {
	messages []Message
	contacts []Contact
	statuses []Status
}

func extractionChain(env envelope) []*candidate {
	return []*candidate{
		fromEntry(env),
		fromTopLevelValue(env),
		fromTopLevelChanges(env),
	}
}

// fromEntry resolves entry[0].changes[0].value, the standard Cloud API shape.
// Statuses are only ever delivered here.
func fromEntry(env envelope) *candidate {
	if len(env.Entry) == 0 || len(env.Entry[0].Changes) == 0 {
		return nil
	}
	v := env.Entry[0].Changes[0].Value
	if v == nil {
		return nil
	}
	return &candidate{messages: v.Messages, contacts: v.Contacts, statuses: v.Statuses}
}

// fromTopLevelValue resolves value.{messages,contacts}, seen from relays that
// strip the entry wrapper.
func fromTopLevelValue(env envelope) *candidate {
	if env.Value == nil {
		return nil
	}
	return &candidate{messages: env.Value.Messages, contacts: env.Value.Contacts}
}

// fromTopLevelChanges resolves changes[0].value.{messages,contacts}.
func fromTopLevelChanges(env envelope) *candidate {
	if len(env.Changes) == 0 || env.Changes[0].Value == nil {
		return nil
	}
	v := env.Changes[0].Value
	return &candidate{messages: v.Messages, contacts: v.Contacts}
}
