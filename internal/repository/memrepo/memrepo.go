// Package memrepo provides in-memory implementations of the repository
// interfaces. They back service and router tests; they are safe for
// concurrent use but keep nothing across restarts.
package memrepo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"adboard/internal/model"
	"adboard/internal/repository"
)

// ErrInjected is returned by stores whose Fail flag is set
var ErrInjected = errors.New("injected storage failure")

// Users is an in-memory repository.UserRepository
type Users struct {
	mu     sync.Mutex
	nextID int
	rows   []model.User
	Fail   bool
}

func NewUsers() *Users {
	return &Users{nextID: 1}
}

func (u *Users) Create(_ context.Context, user *model.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Fail {
		return ErrInjected
	}
	for _, existing := range u.rows {
		if existing.Identity == user.Identity {
			return fmt.Errorf("failed to create user: %w", repository.ErrDuplicate)
		}
	}
	user.ID = u.nextID
	u.nextID++
	u.rows = append(u.rows, *user)
	return nil
}

func (u *Users) FindByIdentity(_ context.Context, identity string) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.rows {
		if existing.Identity == identity {
			found := existing
			return &found, nil
		}
	}
	return nil, nil
}

func (u *Users) FindByID(_ context.Context, id int) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.rows {
		if existing.ID == id {
			found := existing
			return &found, nil
		}
	}
	return nil, nil
}

// Count returns the number of stored users
func (u *Users) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.rows)
}

// Advertisements is an in-memory repository.AdvertisementRepository
type Advertisements struct {
	mu     sync.Mutex
	nextID int
	rows   []model.Advertisement
	Fail   bool
}

func NewAdvertisements() *Advertisements {
	return &Advertisements{nextID: 1}
}

func (a *Advertisements) Create(_ context.Context, ad *model.Advertisement) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Fail {
		return ErrInjected
	}
	ad.ID = a.nextID
	a.nextID++
	a.rows = append(a.rows, *ad)
	return nil
}

func (a *Advertisements) FindAll(_ context.Context) ([]model.Advertisement, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Fail {
		return nil, ErrInjected
	}
	out := make([]model.Advertisement, len(a.rows))
	copy(out, a.rows)
	return out, nil
}

// Count returns the number of stored advertisements
func (a *Advertisements) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.rows)
}

// Sessions is an in-memory repository.SessionRepository
type Sessions struct {
	mu   sync.Mutex
	rows map[string]model.Session
	Fail bool
}

func NewSessions() *Sessions {
	return &Sessions{rows: make(map[string]model.Session)}
}

func (s *Sessions) Create(_ context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[session.ID] = *session
	return nil
}

func (s *Sessions) FindByID(_ context.Context, id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrInjected
	}
	found, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	return &found, nil
}

func (s *Sessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *Sessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, row := range s.rows {
		if !row.ExpiresAt.After(now) {
			delete(s.rows, id)
			n++
		}
	}
	return n, nil
}

// Count returns the number of live rows
func (s *Sessions) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

var (
	_ repository.UserRepository          = (*Users)(nil)
	_ repository.AdvertisementRepository = (*Advertisements)(nil)
	_ repository.SessionRepository       = (*Sessions)(nil)
)
