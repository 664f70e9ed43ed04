// Package store persists call records, the zipcode lookup cache, SMS
// signups, and voicemail messages. Two implementations exist: MongoStore
// for production and MemoryStore for tests and local development.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the document persistence used by the IVR.
type Store interface {
	// FindCall returns the call record for a SID, or ErrNotFound.
	FindCall(ctx context.Context, callSID string) (*CallRecord, error)

	// SaveCall upserts a call record keyed by its SID.
	SaveCall(ctx context.Context, record *CallRecord) error

	// FindZipcode returns the cached legislator list for a zipcode,
	// or ErrNotFound.
	FindZipcode(ctx context.Context, zipcode string) (*ZipcodeEntry, error)

	// SaveZipcode stores the legislator list for a zipcode.
	SaveZipcode(ctx context.Context, entry *ZipcodeEntry) error

	// InsertSignup appends an SMS opt-in record.
	InsertSignup(ctx context.Context, signup *Signup) error

	// InsertVoicemail appends a recorded message record.
	InsertVoicemail(ctx context.Context, voicemail *Voicemail) error
}
