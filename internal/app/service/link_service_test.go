package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sifan077/graby/internal/app/model"
	"github.com/sifan077/graby/internal/app/repository"
)

type mockLinkRepository struct {
	createFn        func(ctx context.Context, link *model.Link) error
	getFn           func(ctx context.Context, id string) (*model.Link, error)
	listFn          func(ctx context.Context, ownerID string, limit, offset int) ([]model.Link, error)
	deleteFn        func(ctx context.Context, id string) error
	deleteExpiredFn func(ctx context.Context, before time.Time) (int64, error)
}

func (m *mockLinkRepository) Create(ctx context.Context, link *model.Link) error {
	if m.createFn != nil {
		return m.createFn(ctx, link)
	}
	return nil
}

func (m *mockLinkRepository) GetByID(ctx context.Context, id string) (*model.Link, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Link, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID, limit, offset)
	}
	return nil, nil
}

func (m *mockLinkRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockLinkRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx, before)
	}
	return 0, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestLinkService_CreateLink_TTL(t *testing.T) {
	now := time.Date(2025, 5, 18, 12, 0, 0, 0, time.UTC)
	var stored *model.Link
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			stored = link
			return nil
		},
	}

	svc := NewLinkService(repo, LinkOptions{Policy: TTLPolicy(24 * time.Hour), Now: fixedClock(now)})
	link, err := svc.CreateLink(context.Background(), CreateLinkInput{
		ID:          "abc",
		OriginalURL: "https://example.com",
		OwnerUserID: "u1",
	})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if stored == nil || stored.ID != "abc" {
		t.Fatalf("expected link abc to be stored, got %+v", stored)
	}
	if !link.CreatedAt.Equal(now) {
		t.Fatalf("expected created_at %v, got %v", now, link.CreatedAt)
	}
	if link.ExpiresAt == nil || !link.ExpiresAt.Equal(now.Add(24*time.Hour)) {
		t.Fatalf("expected expires_at 24h after creation, got %v", link.ExpiresAt)
	}
}

func TestLinkService_CreateLink_OneShotHasNoExpiry(t *testing.T) {
	svc := NewLinkService(&mockLinkRepository{}, LinkOptions{Policy: OneShotPolicy()})
	link, err := svc.CreateLink(context.Background(), CreateLinkInput{
		ID:          "abc",
		OriginalURL: "https://example.com",
		OwnerUserID: "u1",
	})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if link.ExpiresAt != nil {
		t.Fatalf("expected no expiry for one-shot links, got %v", link.ExpiresAt)
	}
}

func TestLinkService_CreateLink_InvalidInput(t *testing.T) {
	svc := NewLinkService(&mockLinkRepository{}, LinkOptions{})
	cases := []CreateLinkInput{
		{ID: "abc", OriginalURL: "", OwnerUserID: "u1"},
		{ID: "abc", OriginalURL: "https://example.com", OwnerUserID: ""},
		{ID: "abc", OriginalURL: "not a url", OwnerUserID: "u1"},
		{ID: "abc", OriginalURL: "ftp://example.com/file", OwnerUserID: "u1"},
		{ID: "a/b", OriginalURL: "https://example.com", OwnerUserID: "u1"},
		{ID: "api", OriginalURL: "https://example.com", OwnerUserID: "u1"},
	}
	for _, in := range cases {
		if _, err := svc.CreateLink(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("input %+v: expected ErrInvalidInput, got %v", in, err)
		}
	}
}

func TestLinkService_CreateLink_AlreadyExists(t *testing.T) {
	svc := NewLinkService(repository.NewMemoryLinkRepository(), LinkOptions{})
	in := CreateLinkInput{ID: "abc", OriginalURL: "https://example.com", OwnerUserID: "u1"}

	if _, err := svc.CreateLink(context.Background(), in); err != nil {
		t.Fatalf("first CreateLink error: %v", err)
	}
	if _, err := svc.CreateLink(context.Background(), in); !errors.Is(err, repository.ErrLinkExists) {
		t.Fatalf("expected ErrLinkExists, got %v", err)
	}
}

func TestLinkService_CreateLink_GeneratesIDAndRetries(t *testing.T) {
	calls := 0
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			calls++
			if calls == 1 {
				return repository.ErrLinkExists
			}
			return nil
		},
	}

	svc := NewLinkService(repo, LinkOptions{})
	link, err := svc.CreateLink(context.Background(), CreateLinkInput{
		OriginalURL: "https://example.com",
		OwnerUserID: "u1",
	})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected a retry after a collision, got %d attempts", calls)
	}
	if len(link.ID) != defaultIDLength {
		t.Fatalf("expected a %d character id, got %q", defaultIDLength, link.ID)
	}
}

func TestLinkService_Resolve_NotFound(t *testing.T) {
	svc := NewLinkService(&mockLinkRepository{}, LinkOptions{})
	_, err := svc.Resolve(context.Background(), "missing")
	if !errors.Is(err, repository.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestLinkService_Resolve_IgnoresExpiry(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	repo := &mockLinkRepository{
		getFn: func(ctx context.Context, id string) (*model.Link, error) {
			return &model.Link{ID: id, ExpiresAt: &past}, nil
		},
	}
	svc := NewLinkService(repo, LinkOptions{Policy: TTLPolicy(time.Hour)})
	if _, err := svc.Resolve(context.Background(), "old"); err != nil {
		t.Fatalf("expected expired link to resolve, got %v", err)
	}
}

func TestLinkService_Invalidate_Idempotent(t *testing.T) {
	repo := repository.NewMemoryLinkRepository()
	svc := NewLinkService(repo, LinkOptions{})
	ctx := context.Background()

	if _, err := svc.CreateLink(ctx, CreateLinkInput{ID: "abc", OriginalURL: "https://example.com", OwnerUserID: "u1"}); err != nil {
		t.Fatalf("CreateLink error: %v", err)
	}
	if err := svc.Invalidate(ctx, "abc"); err != nil {
		t.Fatalf("first Invalidate error: %v", err)
	}
	if err := svc.Invalidate(ctx, "abc"); err != nil {
		t.Fatalf("second Invalidate error: %v", err)
	}
	if _, err := svc.Resolve(ctx, "abc"); !errors.Is(err, repository.ErrLinkNotFound) {
		t.Fatalf("expected link to be gone, got %v", err)
	}
}

func TestLinkService_ListLinks(t *testing.T) {
	repo := &mockLinkRepository{
		listFn: func(ctx context.Context, ownerID string, limit, offset int) ([]model.Link, error) {
			if ownerID != "u1" {
				t.Fatalf("unexpected owner %q", ownerID)
			}
			return []model.Link{{ID: "a"}, {ID: "b"}}, nil
		},
	}
	svc := NewLinkService(repo, LinkOptions{})

	list, err := svc.ListLinks(context.Background(), "u1", 10, 0)
	if err != nil {
		t.Fatalf("ListLinks error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 links, got %d", len(list))
	}
}

func TestLinkService_SweepExpired(t *testing.T) {
	now := time.Date(2025, 5, 18, 12, 0, 0, 0, time.UTC)
	repo := &mockLinkRepository{
		deleteExpiredFn: func(ctx context.Context, before time.Time) (int64, error) {
			if !before.Equal(now) {
				t.Fatalf("expected cutoff %v, got %v", now, before)
			}
			return 3, nil
		},
	}
	svc := NewLinkService(repo, LinkOptions{Policy: TTLPolicy(time.Hour), Now: fixedClock(now)})

	n, err := svc.SweepExpired(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("expected 3 swept links, got %d (%v)", n, err)
	}
}
