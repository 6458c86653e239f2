// Package store holds the canonical in-memory profile per user. Profiles go
// in and come out as deep copies, so no caller ever aliases stored state.
//
// Like the audit log, the store does not lock; per-user serialization is the
// caller's responsibility.
package store

import "github.com/pfsim/pfsim/internal/domain"

// UserStateStore maps user ids to their current profile.
type UserStateStore struct {
	profiles map[string]domain.UserProfile
}

// NewUserStateStore creates an empty store.
func NewUserStateStore() *UserStateStore {
	return &UserStateStore{profiles: make(map[string]domain.UserProfile)}
}

// Get returns a copy of the stored profile and whether one exists.
func (s *UserStateStore) Get(userID string) (domain.UserProfile, bool) {
	profile, ok := s.profiles[userID]
	if !ok {
		return domain.UserProfile{}, false
	}
	return profile.Clone(), true
}

// GetOrCreate returns the stored profile, seeding the store with fallback
// when the user is unknown.
func (s *UserStateStore) GetOrCreate(userID string, fallback domain.UserProfile) domain.UserProfile {
	if profile, ok := s.profiles[userID]; ok {
		return profile.Clone()
	}
	s.profiles[userID] = fallback.Clone()
	return fallback.Clone()
}

// Set stores a copy of the profile under the user id.
func (s *UserStateStore) Set(userID string, profile domain.UserProfile) {
	s.profiles[userID] = profile.Clone()
}

// Has reports whether a profile is stored for the user.
func (s *UserStateStore) Has(userID string) bool {
	_, ok := s.profiles[userID]
	return ok
}

// Delete removes the user's profile, reporting whether one was present.
func (s *UserStateStore) Delete(userID string) bool {
	_, ok := s.profiles[userID]
	delete(s.profiles, userID)
	return ok
}

// Len returns the number of stored profiles.
func (s *UserStateStore) Len() int {
	return len(s.profiles)
}
