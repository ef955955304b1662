package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/credit-engine/internal/domain"
)

type memoryCredit struct {
	credit   domain.Credit
	seq      uint64
	payments []domain.Payment
}

// MemoryCreditStore is an in-memory implementation of CreditRepository and PaymentRepository.
// A single mutex covers every read-modify-write, so payments against one credit never interleave.
type MemoryCreditStore struct {
	mu      sync.Mutex
	seq     uint64
	credits map[uuid.UUID]*memoryCredit
}

// NewMemoryCreditStore creates a new in-memory credit store.
func NewMemoryCreditStore() *MemoryCreditStore {
	return &MemoryCreditStore{
		credits: make(map[uuid.UUID]*memoryCredit),
	}
}

func (s *MemoryCreditStore) Create(ctx context.Context, credit *domain.Credit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.credits[credit.ID] = &memoryCredit{credit: *credit, seq: s.seq}
	return nil
}

func (s *MemoryCreditStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Credit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.credits[id]
	if !ok {
		return nil, ErrNotFound
	}
	credit := entry.credit
	return &credit, nil
}

func (s *MemoryCreditStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Credit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]*memoryCredit, 0)
	for _, entry := range s.credits {
		if entry.credit.UserID == userID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		ci, cj := entries[i].credit.CreatedAt, entries[j].credit.CreatedAt
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return entries[i].seq > entries[j].seq
	})

	credits := make([]*domain.Credit, 0, len(entries))
	for _, entry := range entries {
		credit := entry.credit
		credits = append(credits, &credit)
	}
	return credits, nil
}

func (s *MemoryCreditStore) ApplyPayment(ctx context.Context, payment *domain.Payment, guard PaymentGuard) (*domain.Credit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.credits[payment.CreditID]
	if !ok {
		return nil, ErrNotFound
	}

	if guard != nil {
		snapshot := entry.credit
		if err := guard(&snapshot); err != nil {
			return nil, err
		}
	}

	entry.payments = append(entry.payments, *payment)
	entry.credit.PaidMonths++
	entry.credit.PaidAmount = entry.credit.PaidAmount.Add(payment.Amount)
	entry.credit.UpdatedAt = payment.CreatedAt

	credit := entry.credit
	return &credit, nil
}

func (s *MemoryCreditStore) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.credits[id]
	if !ok {
		return uuid.Nil, false, nil
	}
	delete(s.credits, id)
	return entry.credit.UserID, true, nil
}

func (s *MemoryCreditStore) MarkCompleted(ctx context.Context, now time.Time) ([]*domain.Credit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	completed := []*domain.Credit{}
	for _, entry := range s.credits {
		if entry.credit.Status != domain.CreditStatusActive || !entry.credit.IsSettled() {
			continue
		}
		entry.credit.Status = domain.CreditStatusCompleted
		entry.credit.UpdatedAt = now
		credit := entry.credit
		completed = append(completed, &credit)
	}
	return completed, nil
}

func (s *MemoryCreditStore) ListByCreditID(ctx context.Context, creditID uuid.UUID) ([]*domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payments := []*domain.Payment{}
	entry, ok := s.credits[creditID]
	if !ok {
		return payments, nil
	}
	for i := range entry.payments {
		payment := entry.payments[i]
		payments = append(payments, &payment)
	}
	return payments, nil
}

// MemoryUserStore is an in-memory implementation of UserRepository.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserStore creates a new in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users: make(map[string]domain.User),
	}
}

func (s *MemoryUserStore) Create(ctx context.Context, user *domain.User) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.users[email]; exists {
		return false, nil
	}
	stored := *user
	stored.Email = email
	s.users[email] = stored
	return true, nil
}

func (s *MemoryUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}
