package store

import (
	"context"
	"sync"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and
// local development where no Mongo instance is available.
type MemoryStore struct {
	mu         sync.RWMutex
	calls      map[string]CallRecord
	zipcodes   map[string]ZipcodeEntry
	signups    []Signup
	voicemails []Voicemail
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		calls:    make(map[string]CallRecord),
		zipcodes: make(map[string]ZipcodeEntry),
	}
}

// FindCall implements Store.
func (s *MemoryStore) FindCall(_ context.Context, callSID string) (*CallRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.calls[callSID]
	if !ok {
		return nil, ErrNotFound
	}
	out := record
	return &out, nil
}

// SaveCall implements Store.
func (s *MemoryStore) SaveCall(_ context.Context, record *CallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[record.CallSID] = *record
	return nil
}

// FindZipcode implements Store.
func (s *MemoryStore) FindZipcode(_ context.Context, zipcode string) (*ZipcodeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.zipcodes[zipcode]
	if !ok {
		return nil, ErrNotFound
	}
	out := entry
	return &out, nil
}

// SaveZipcode implements Store.
func (s *MemoryStore) SaveZipcode(_ context.Context, entry *ZipcodeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.zipcodes[entry.Zipcode] = *entry
	return nil
}

// InsertSignup implements Store.
func (s *MemoryStore) InsertSignup(_ context.Context, signup *Signup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.signups = append(s.signups, *signup)
	return nil
}

// InsertVoicemail implements Store.
func (s *MemoryStore) InsertVoicemail(_ context.Context, voicemail *Voicemail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.voicemails = append(s.voicemails, *voicemail)
	return nil
}

// Signups returns a copy of all captured SMS opt-ins.
func (s *MemoryStore) Signups() []Signup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Signup, len(s.signups))
	copy(out, s.signups)
	return out
}

// Voicemails returns a copy of all captured voicemail records.
func (s *MemoryStore) Voicemails() []Voicemail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Voicemail, len(s.voicemails))
	copy(out, s.voicemails)
	return out
}
