package domain

// Status is the canonical notification lifecycle state. Transitions only move
// forward along the table below; there are no regressions.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

// transitions is the full set of legal state changes. Self-loops on draft and
// scheduled cover edits made while the notification is still editable.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusDraft, StatusScheduled, StatusSending},
	StatusScheduled: {StatusScheduled, StatusSending},
	StatusSending:   {StatusSent, StatusFailed},
	StatusSent:      {StatusRead},
	StatusRead:      {},
	StatusFailed:    {},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Editable reports whether content, recipient fields and schedule may still
// change. Once a notification starts sending, its content is frozen so that
// the document hash keeps its evidentiary meaning.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusScheduled
}

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}
