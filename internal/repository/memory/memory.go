// Package memory holds in-memory implementations of the store interfaces.
// They mirror the guarded-transition semantics of the postgres package under
// a single mutex, which makes them usable as test doubles for the lifecycle
// concurrency properties.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/soulpin/soulpin-backend/internal/domain"
	"github.com/soulpin/soulpin-backend/internal/repository"
)

type Store struct {
	mu       sync.Mutex
	users    map[string]*domain.UserProfile
	matches  map[string]*domain.Match
	messages []*domain.Message
	seq      int
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]*domain.UserProfile),
		matches: make(map[string]*domain.Match),
	}
}

func (s *Store) Users() repository.UserRepository       { return (*userStore)(s) }
func (s *Store) Matches() repository.MatchRepository    { return (*matchStore)(s) }
func (s *Store) Messages() repository.MessageRepository { return (*messageStore)(s) }

func cloneUser(u *domain.UserProfile) *domain.UserProfile {
	c := *u
	if u.FreezeUntil != nil {
		t := *u.FreezeUntil
		c.FreezeUntil = &t
	}
	if u.MatchID != nil {
		id := *u.MatchID
		c.MatchID = &id
	}
	return &c
}

func cloneMatch(m *domain.Match) *domain.Match {
	c := *m
	if m.UnpinnedBy != nil {
		v := *m.UnpinnedBy
		c.UnpinnedBy = &v
	}
	if m.UnpinnedAt != nil {
		t := *m.UnpinnedAt
		c.UnpinnedAt = &t
	}
	if m.FirstMessageAt != nil {
		t := *m.FirstMessageAt
		c.FirstMessageAt = &t
	}
	return &c
}

type userStore Store

func (s *userStore) Create(ctx context.Context, user *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return domain.ErrUserExists
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *userStore) Update(ctx context.Context, user *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	updated := cloneUser(user)
	updated.CurrentState = stored.CurrentState
	updated.FreezeUntil = stored.FreezeUntil
	updated.MatchID = stored.MatchID
	updated.UpdatedAt = time.Now()
	s.users[user.ID] = updated
	return nil
}

func (s *userStore) ListAvailable(ctx context.Context, excludingID string) ([]*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.UserProfile
	for _, u := range s.users {
		if u.ID == excludingID || u.CurrentState != domain.UserStateAvailable {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *userStore) ActivateOnboarded(ctx context.Context, id string) error {
	return s.transition(id, func(u *domain.UserProfile) bool {
		if u.CurrentState != domain.UserStateOnboarding {
			return false
		}
		u.CurrentState = domain.UserStateAvailable
		return true
	})
}

func (s *userStore) SetFrozen(ctx context.Context, id string, until time.Time) error {
	return s.transition(id, func(u *domain.UserProfile) bool {
		if u.CurrentState != domain.UserStateMatched {
			return false
		}
		u.CurrentState = domain.UserStateFrozen
		u.FreezeUntil = &until
		u.MatchID = nil
		return true
	})
}

func (s *userStore) Unfreeze(ctx context.Context, id string) error {
	return s.transition(id, func(u *domain.UserProfile) bool {
		if u.CurrentState != domain.UserStateFrozen {
			return false
		}
		u.CurrentState = domain.UserStateAvailable
		u.FreezeUntil = nil
		return true
	})
}

func (s *userStore) ReleaseFromMatch(ctx context.Context, id, matchID string) error {
	return s.transition(id, func(u *domain.UserProfile) bool {
		if u.CurrentState != domain.UserStateMatched || u.MatchID == nil || *u.MatchID != matchID {
			return false
		}
		u.CurrentState = domain.UserStateAvailable
		u.MatchID = nil
		return true
	})
}

func (s *userStore) transition(id string, apply func(*domain.UserProfile) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if !apply(u) {
		return domain.ErrInvalidTransition
	}
	u.UpdatedAt = time.Now()
	return nil
}

type matchStore Store

func (s *matchStore) Create(ctx context.Context, match *domain.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, userID := range []string{match.User1ID, match.User2ID} {
		u, ok := s.users[userID]
		if !ok {
			return domain.ErrUserNotFound
		}
		if u.CurrentState != domain.UserStateAvailable {
			return domain.ErrUserNotAvailable
		}
	}
	match.CreatedAt = time.Now()
	s.matches[match.ID] = cloneMatch(match)
	for _, userID := range []string{match.User1ID, match.User2ID} {
		u := s.users[userID]
		u.CurrentState = domain.UserStateMatched
		id := match.ID
		u.MatchID = &id
	}
	return nil
}

func (s *matchStore) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (s *matchStore) GetActiveForUser(ctx context.Context, userID string) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *domain.Match
	for _, m := range s.matches {
		if m.HasUser(userID) && m.IsActive() {
			if best == nil || m.CreatedAt.After(best.CreatedAt) {
				best = m
			}
		}
	}
	if best == nil {
		return nil, domain.ErrNoActiveMatch
	}
	return cloneMatch(best), nil
}

func (s *matchStore) IncrementMessageCount(ctx context.Context, matchID string, at time.Time) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[matchID]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	if !m.IsActive() {
		return nil, domain.ErrMatchNotActive
	}
	m.MessageCount++
	if m.FirstMessageAt == nil {
		t := at
		m.FirstMessageAt = &t
	}
	return cloneMatch(m), nil
}

func (s *matchStore) SetVideoUnlocked(ctx context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[matchID]
	if !ok {
		return domain.ErrMatchNotFound
	}
	if m.IsActive() {
		m.VideoUnlocked = true
	}
	return nil
}

func (s *matchStore) End(ctx context.Context, matchID, unpinnedBy string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[matchID]
	if !ok {
		return domain.ErrMatchNotFound
	}
	if !m.IsActive() {
		return domain.ErrMatchNotActive
	}
	m.Status = domain.MatchStatusEnded
	m.UnpinnedBy = &unpinnedBy
	t := at
	m.UnpinnedAt = &t
	return nil
}

func (s *matchStore) MarkFeedbackSent(ctx context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[matchID]
	if !ok {
		return domain.ErrMatchNotFound
	}
	m.FeedbackSent = true
	return nil
}

type messageStore Store

func (s *messageStore) Create(ctx context.Context, message *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.messages = append(s.messages, &domain.Message{
		ID:        message.ID,
		MatchID:   message.MatchID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		Type:      message.Type,
		Read:      message.Read,
		CreatedAt: message.CreatedAt,
	})
	return nil
}

func (s *messageStore) ListByMatch(ctx context.Context, matchID string) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Message
	for _, m := range s.messages {
		if m.MatchID == matchID {
			c := *m
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
