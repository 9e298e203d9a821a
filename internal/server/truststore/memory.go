package truststore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"github.com/dmitrijs2005/trustkeeper/internal/netx"
	"github.com/dmitrijs2005/trustkeeper/internal/server/models"
	"github.com/dmitrijs2005/trustkeeper/internal/server/trust"
	"github.com/dmitrijs2005/trustkeeper/internal/timex"
	"github.com/google/uuid"
)

type memUser struct {
	user     models.User
	domains  map[string]time.Time
	ips      map[string]time.Time
	verified map[string]time.Time
}

// MemoryStore is an in-process Store. A single mutex makes every
// check-and-write atomic, mirroring the database constraints of SQLStore.
type MemoryStore struct {
	mu      sync.RWMutex
	clock   timex.Clock
	users   map[string]*memUser
	byEmail map[string]string
	byPhone map[string]string
}

func NewMemoryStore(clock timex.Clock) *MemoryStore {
	if clock == nil {
		clock = timex.SystemClock()
	}
	return &MemoryStore{
		clock:   clock,
		users:   make(map[string]*memUser),
		byEmail: make(map[string]string),
		byPhone: make(map[string]string),
	}
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[netx.NormalizeEmail(email)]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	u := s.users[id].user
	return &u, nil
}

func (s *MemoryStore) FindUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mu, ok := s.users[id]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	u := mu.user
	return &u, nil
}

func (s *MemoryStore) HasDomain(_ context.Context, userID, domain string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mu, ok := s.users[userID]
	if !ok {
		return false, nil
	}
	_, found := mu.domains[netx.NormalizeDomain(domain)]
	return found, nil
}

func (s *MemoryStore) HasIP(_ context.Context, userID, ip string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mu, ok := s.users[userID]
	if !ok {
		return false, nil
	}
	_, found := mu.ips[normalizeIP(ip)]
	return found, nil
}

func (s *MemoryStore) HasVerifiedEmail(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mu, ok := s.users[userID]
	if !ok {
		return false, nil
	}
	return len(mu.verified) > 0, nil
}

func (s *MemoryStore) AddDomain(_ context.Context, userID, domain string) (bool, error) {
	return s.addTo(userID, func(mu *memUser) map[string]time.Time { return mu.domains }, netx.NormalizeDomain(domain))
}

func (s *MemoryStore) AddIP(_ context.Context, userID, ip string) (bool, error) {
	return s.addTo(userID, func(mu *memUser) map[string]time.Time { return mu.ips }, normalizeIP(ip))
}

func (s *MemoryStore) AddVerifiedEmail(_ context.Context, userID, email string) error {
	_, err := s.addTo(userID, func(mu *memUser) map[string]time.Time { return mu.verified }, netx.NormalizeEmail(email))
	return err
}

func (s *MemoryStore) addTo(userID string, set func(*memUser) map[string]time.Time, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.users[userID]
	if !ok {
		return false, common.ErrUserNotFound
	}
	m := set(mu)
	if _, exists := m[value]; exists {
		return false, nil
	}
	m[value] = s.clock.Now()
	return true, nil
}

func (s *MemoryStore) RemoveIP(_ context.Context, userID, ip string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.users[userID]
	if !ok {
		return false, nil
	}
	ip = normalizeIP(ip)
	if _, found := mu.ips[ip]; !found {
		return false, nil
	}
	delete(mu.ips, ip)
	return true, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User, domain, ip string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := netx.NormalizeEmail(user.Email)
	if _, taken := s.byEmail[email]; taken {
		return nil, common.ErrDuplicateEmail
	}
	if user.PhoneNumber != "" {
		if _, taken := s.byPhone[user.PhoneNumber]; taken {
			return nil, fmt.Errorf("%w: phone number already in use", common.ErrInvalidArgument)
		}
	}

	now := s.clock.Now()
	u := *user
	u.ID = uuid.NewString()
	u.Email = email
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = &memUser{
		user:     u,
		domains:  map[string]time.Time{netx.NormalizeDomain(domain): now},
		ips:      map[string]time.Time{normalizeIP(ip): now},
		verified: make(map[string]time.Time),
	}
	s.byEmail[email] = u.ID
	if u.PhoneNumber != "" {
		s.byPhone[u.PhoneNumber] = u.ID
	}

	out := u
	return &out, nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.users[id]
	if !ok {
		return common.ErrUserNotFound
	}
	delete(s.byEmail, mu.user.Email)
	if mu.user.PhoneNumber != "" {
		delete(s.byPhone, mu.user.PhoneNumber)
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, userID string, p models.Profile) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.users[userID]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	if p.PhoneNumber != "" {
		if owner, taken := s.byPhone[p.PhoneNumber]; taken && owner != userID {
			return nil, fmt.Errorf("%w: phone number already in use", common.ErrInvalidArgument)
		}
	}
	if mu.user.PhoneNumber != "" {
		delete(s.byPhone, mu.user.PhoneNumber)
	}
	if p.PhoneNumber != "" {
		s.byPhone[p.PhoneNumber] = userID
	}

	mu.user.Profile = p
	mu.user.UpdatedAt = s.clock.Now()
	u := mu.user
	return &u, nil
}

func (s *MemoryStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.users[userID]
	if !ok {
		return common.ErrUserNotFound
	}
	mu.user.PasswordHash = passwordHash
	mu.user.UpdatedAt = s.clock.Now()
	return nil
}

func (s *MemoryStore) LoadFacts(_ context.Context, userID string) (trust.Facts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	facts := trust.Facts{UserID: userID}
	mu, ok := s.users[userID]
	if !ok {
		return facts, nil
	}
	facts.Domains = sortedKeys(mu.domains)
	facts.IPs = sortedKeys(mu.ips)
	facts.VerifiedEmails = sortedKeys(mu.verified)
	return facts, nil
}

func sortedKeys(m map[string]time.Time) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return m[keys[i]].Before(m[keys[j]]) || (m[keys[i]].Equal(m[keys[j]]) && keys[i] < keys[j]) })
	return keys
}
