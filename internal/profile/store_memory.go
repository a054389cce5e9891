package profile

import (
	"context"
	"sync"
	"time"

	id "usemy/pkg/domain"
	"usemy/pkg/platform/sentinel"
)

// InMemoryStore keeps profiles in maps. It backs development mode and tests.
//
// FailWith, when set, is returned verbatim from every read; tests use it to
// simulate store-side auth rejection and transient outages.
type InMemoryStore struct {
	mu            sync.RWMutex
	profiles      map[id.UserID]Profile
	professionals map[id.UserID]ProfessionalProfile

	FailWith error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles:      make(map[id.UserID]Profile),
		professionals: make(map[id.UserID]ProfessionalProfile),
	}
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	if p, ok := s.profiles[userID]; ok {
		copied := p
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Exists(_ context.Context, userID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return false, s.FailWith
	}
	_, ok := s.profiles[userID]
	return ok, nil
}

func (s *InMemoryStore) Create(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(p)
}

func (s *InMemoryStore) createLocked(p *Profile) error {
	if _, exists := s.profiles[p.ID]; exists {
		return sentinel.ErrConflict
	}
	now := time.Now()
	stored := *p
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.profiles[p.ID] = stored
	return nil
}

func (s *InMemoryStore) CreateWithProfessional(_ context.Context, p *Profile, pro *ProfessionalProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.professionals[pro.UserID]; exists {
		return sentinel.ErrConflict
	}
	if err := s.createLocked(p); err != nil {
		return err
	}
	stored := *pro
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.professionals[pro.UserID] = stored
	return nil
}

func (s *InMemoryStore) CreateProfessional(_ context.Context, pro *ProfessionalProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[pro.UserID]; !ok {
		return sentinel.ErrNotFound
	}
	if _, exists := s.professionals[pro.UserID]; exists {
		return sentinel.ErrConflict
	}
	stored := *pro
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.professionals[pro.UserID] = stored
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, userID id.UserID, patch Patch) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	applyPatch(&p, patch)
	p.UpdatedAt = time.Now()
	s.profiles[userID] = p
	copied := p
	return &copied, nil
}

func (s *InMemoryStore) FindProfessionalByUserID(_ context.Context, userID id.UserID) (*ProfessionalProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pro, ok := s.professionals[userID]; ok {
		copied := pro
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func applyPatch(p *Profile, patch Patch) {
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.AvatarURL != nil {
		p.AvatarURL = *patch.AvatarURL
	}
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	if patch.City != nil {
		p.City = *patch.City
	}
	if patch.PostalCode != nil {
		p.PostalCode = *patch.PostalCode
	}
	if patch.Latitude != nil {
		p.Latitude = patch.Latitude
	}
	if patch.Longitude != nil {
		p.Longitude = patch.Longitude
	}
}
