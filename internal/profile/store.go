package profile

import "sync"

// Store is the narrow persistence interface for session profiles.
// Implemented by MemoryStore and by storage.Store.
type Store interface {
	// Get returns the profile for sessionID and whether one exists.
	// The returned profile must be safe for the caller to mutate.
	Get(sessionID string) (Profile, bool, error)
	// Put saves the profile under its SessionID, overwriting any previous one.
	Put(p Profile) error
	// Delete removes the profile for sessionID. Missing profiles are a no-op.
	Delete(sessionID string) error
}

// MemoryStore keeps profiles in a mutex-guarded map. State lives for the
// lifetime of the process; there is no expiry.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryStore creates an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

func (s *MemoryStore) Get(sessionID string) (Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[sessionID]
	if !ok {
		return Profile{}, false, nil
	}
	return copyProfile(p), true, nil
}

func (s *MemoryStore) Put(p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.SessionID] = copyProfile(p)
	return nil
}

func (s *MemoryStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, sessionID)
	return nil
}

// Save stores the given attributes for a session while preserving any record
// snapshot and document notes already attached to it. This is the handler-side
// merge: a profile save must not clobber a previous upload.
func Save(store Store, p Profile) error {
	existing, ok, err := store.Get(p.SessionID)
	if err != nil {
		return err
	}
	if ok {
		if p.Records == nil {
			p.Records = existing.Records
		}
		if p.DocumentNotes == "" {
			p.DocumentNotes = existing.DocumentNotes
		}
	}
	return store.Put(p)
}

// AttachRecords merges a fresh record snapshot into the session's profile
// without touching its other fields, creating the profile if needed.
func AttachRecords(store Store, sessionID string, snap *RecordSnapshot) error {
	p, _, err := store.Get(sessionID)
	if err != nil {
		return err
	}
	p.SessionID = sessionID
	p.Records = snap
	return store.Put(p)
}

// AttachDocumentNotes merges extracted document text into the session's
// profile without touching its other fields.
func AttachDocumentNotes(store Store, sessionID, notes string) error {
	p, _, err := store.Get(sessionID)
	if err != nil {
		return err
	}
	p.SessionID = sessionID
	p.DocumentNotes = notes
	return store.Put(p)
}
