package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sifan077/graby/internal/app/model"
)

// The memory repositories back the "memory" store driver. Each operation
// runs under the shared state mutex, which gives the same single-statement
// atomicity the Postgres implementations get from conditional updates.

// memoryState holds links and users behind one lock so RedeemOneShot can
// touch both tables atomically.
type memoryState struct {
	mu    sync.Mutex
	links map[string]model.Link
	users map[string]model.User
}

func newMemoryState() *memoryState {
	return &memoryState{
		links: make(map[string]model.Link),
		users: make(map[string]model.User),
	}
}

// MemoryStore is a set of in-process repositories over shared state.
type MemoryStore struct {
	Links   LinkRepository
	Credits CreditRepository
	Clicks  ClickLogRepository
}

// NewMemoryStore returns repositories whose links and users share one lock.
func NewMemoryStore() *MemoryStore {
	state := newMemoryState()
	return &MemoryStore{
		Links:   &memoryLinkRepository{memoryState: state},
		Credits: &memoryCreditRepository{memoryState: state},
		Clicks:  NewMemoryClickLogRepository(),
	}
}

type memoryLinkRepository struct {
	*memoryState
}

// NewMemoryLinkRepository returns a standalone in-process LinkRepository.
func NewMemoryLinkRepository() LinkRepository {
	return &memoryLinkRepository{memoryState: newMemoryState()}
}

func (r *memoryLinkRepository) Create(_ context.Context, link *model.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.links[link.ID]; ok {
		return ErrLinkExists
	}
	r.links[link.ID] = *link
	return nil
}

func (r *memoryLinkRepository) GetByID(_ context.Context, id string) (*model.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[id]
	if !ok {
		return nil, ErrLinkNotFound
	}
	return &link, nil
}

func (r *memoryLinkRepository) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]model.Link, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.Lock()
	var owned []model.Link
	for _, link := range r.links {
		if link.OwnerUserID == ownerID {
			owned = append(owned, link)
		}
	}
	r.mu.Unlock()

	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	if offset >= len(owned) {
		return []model.Link{}, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], nil
}

func (r *memoryLinkRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.links, id)
	return nil
}

func (r *memoryLinkRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, link := range r.links {
		if link.ExpiresAt != nil && link.ExpiresAt.Before(before) {
			delete(r.links, id)
			n++
		}
	}
	return n, nil
}

type memoryCreditRepository struct {
	*memoryState
}

// NewMemoryCreditRepository returns a standalone in-process CreditRepository.
// Its RedeemOneShot sees no links; use NewMemoryStore for redirects.
func NewMemoryCreditRepository() CreditRepository {
	return &memoryCreditRepository{memoryState: newMemoryState()}
}

func (r *memoryCreditRepository) Register(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.UID]
	if !ok {
		stored = *user
		r.users[user.UID] = stored
	}
	return &stored, nil
}

func (r *memoryCreditRepository) Balance(_ context.Context, uid string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[uid]
	if !ok {
		return 0, ErrUserNotFound
	}
	return user.Credits, nil
}

func (r *memoryCreditRepository) Add(_ context.Context, uid string, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[uid]
	if !ok {
		return 0, ErrUserNotFound
	}
	user.Credits += amount
	r.users[uid] = user
	return user.Credits, nil
}

func (r *memoryCreditRepository) ConsumeOne(_ context.Context, uid string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.chargeable(uid)
	if err != nil {
		return 0, err
	}
	user.Credits--
	r.users[uid] = user
	return user.Credits, nil
}

func (r *memoryCreditRepository) RedeemOneShot(_ context.Context, uid, linkID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.chargeable(uid)
	if err != nil {
		return 0, err
	}
	if _, ok := r.links[linkID]; !ok {
		return 0, ErrLinkNotFound
	}
	delete(r.links, linkID)
	user.Credits--
	r.users[uid] = user
	return user.Credits, nil
}

// chargeable must be called with mu held.
func (r *memoryCreditRepository) chargeable(uid string) (model.User, error) {
	user, ok := r.users[uid]
	if !ok {
		return user, ErrUserNotFound
	}
	if user.Credits <= 0 {
		return user, ErrInsufficientCredit
	}
	return user, nil
}

type memoryClickLogRepository struct {
	mu   sync.Mutex
	logs []model.ClickLog
}

// NewMemoryClickLogRepository returns an in-process ClickLogRepository.
func NewMemoryClickLogRepository() ClickLogRepository {
	return &memoryClickLogRepository{}
}

func (r *memoryClickLogRepository) Create(_ context.Context, log *model.ClickLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.logs {
		if r.logs[i].ID == log.ID {
			return nil
		}
	}
	r.logs = append(r.logs, *log)
	return nil
}

func (r *memoryClickLogRepository) ForEachByUser(ctx context.Context, userID string, visit ClickLogVisitor) error {
	r.mu.Lock()
	snapshot := make([]model.ClickLog, len(r.logs))
	copy(snapshot, r.logs)
	r.mu.Unlock()

	for i := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if snapshot[i].UserID == userID {
			visit(&snapshot[i], nil)
		}
	}
	return nil
}
