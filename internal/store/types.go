package store

import (
	"time"

	"github.com/sunlightlabs/capitolphone/internal/directory"
)

// StatusEntry is one append-only entry in a call's status history.
type StatusEntry struct {
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
	CallStatus string    `bson:"call_status" json:"call_status"`
}

// CallContext is the mutable per-call selection state carried across
// webhook turns.
type CallContext struct {
	Zipcode    *string               `bson:"zipcode" json:"zipcode"`
	Legislator *directory.Legislator `bson:"legislator" json:"legislator"`
}

// CallRecord is the persisted document for one phone call, keyed by the
// provider call SID. Records are created on the first webhook for a call
// and retained indefinitely as the call log.
type CallRecord struct {
	CallSID       string        `bson:"call_sid" json:"call_sid"`
	From          string        `bson:"from" json:"from"`
	To            string        `bson:"to" json:"to"`
	CallerName    string        `bson:"caller_name,omitempty" json:"caller_name,omitempty"`
	CurrentStatus string        `bson:"current_status" json:"current_status"`
	Requests      []StatusEntry `bson:"requests" json:"requests"`
	Context       CallContext   `bson:"context" json:"context"`
}

// ZipcodeEntry is the cached, annotated legislator list for one zipcode.
// Entries are written once and never refreshed.
type ZipcodeEntry struct {
	Zipcode     string                 `bson:"zipcode" json:"zipcode"`
	FetchedAt   time.Time              `bson:"timestamp" json:"timestamp"`
	Legislators []directory.Legislator `bson:"legislators" json:"legislators"`
}

// Signup is one SMS opt-in captured from the signup menu.
type Signup struct {
	ID        string    `bson:"_id" json:"id"`
	Phone     string    `bson:"phone" json:"phone"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Voicemail is one recorded caller message.
type Voicemail struct {
	ID           string    `bson:"_id" json:"id"`
	CallSID      string    `bson:"call_sid" json:"call_sid"`
	RecordingURL string    `bson:"url" json:"url"`
	Timestamp    time.Time `bson:"timestamp" json:"timestamp"`
}
