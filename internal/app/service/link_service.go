package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/sifan077/graby/internal/app/model"
	"github.com/sifan077/graby/internal/app/repository"
)

// ExpirationPolicy decides how a link stops redirecting: either after one
// paid use (TTL == 0) or once TTL has elapsed since creation.
type ExpirationPolicy struct {
	TTL time.Duration
}

// OneShotPolicy deletes a link after its first successful redirect.
func OneShotPolicy() ExpirationPolicy { return ExpirationPolicy{} }

// TTLPolicy expires links ttl after creation.
func TTLPolicy(ttl time.Duration) ExpirationPolicy { return ExpirationPolicy{TTL: ttl} }

// OneShot reports whether links are consumed by their first redirect.
func (p ExpirationPolicy) OneShot() bool { return p.TTL <= 0 }

func (p ExpirationPolicy) String() string {
	if p.OneShot() {
		return "one_shot"
	}
	return "ttl(" + p.TTL.String() + ")"
}

// LinkService defines behaviour-level operations on links.
type LinkService interface {
	CreateLink(ctx context.Context, input CreateLinkInput) (*model.Link, error)
	// Resolve returns the stored link without looking at expiration.
	Resolve(ctx context.Context, id string) (*model.Link, error)
	// Invalidate deletes the link; it is a no-op for missing links.
	Invalidate(ctx context.Context, id string) error
	ListLinks(ctx context.Context, ownerID string, limit, offset int) ([]model.Link, error)
	SweepExpired(ctx context.Context) (int64, error)
	Policy() ExpirationPolicy
}

// LinkOptions configures a LinkService.
type LinkOptions struct {
	Policy ExpirationPolicy
	IDs    *IDGenerator
	Now    func() time.Time
}

type linkService struct {
	repo   repository.LinkRepository
	policy ExpirationPolicy
	ids    *IDGenerator
	now    func() time.Time
}

// NewLinkService returns a service implementation backed by the given repository.
func NewLinkService(repo repository.LinkRepository, opts LinkOptions) LinkService {
	if opts.IDs == nil {
		opts.IDs = NewIDGenerator(defaultIDLength, 0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &linkService{
		repo:   repo,
		policy: opts.Policy,
		ids:    opts.IDs,
		now:    opts.Now,
	}
}

// CreateLinkInput captures data required to create a link. An empty ID asks
// the service to generate one.
type CreateLinkInput struct {
	ID          string
	OriginalURL string
	OwnerUserID string
}

var linkIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Ids that would shadow fixed routes.
var reservedLinkIDs = map[string]struct{}{
	"api":    {},
	"health": {},
}

func (s *linkService) CreateLink(ctx context.Context, input CreateLinkInput) (*model.Link, error) {
	if input.OwnerUserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if err := validateDestination(input.OriginalURL); err != nil {
		return nil, err
	}
	if input.ID != "" {
		if !linkIDPattern.MatchString(input.ID) {
			return nil, fmt.Errorf("%w: link_id must be 1-64 letters, digits, '-' or '_'", ErrInvalidInput)
		}
		if _, reserved := reservedLinkIDs[input.ID]; reserved {
			return nil, fmt.Errorf("%w: link_id %q is reserved", ErrInvalidInput, input.ID)
		}
	}

	now := s.now().UTC()
	link := &model.Link{
		ID:          input.ID,
		OriginalURL: input.OriginalURL,
		OwnerUserID: input.OwnerUserID,
		CreatedAt:   now,
	}
	if !s.policy.OneShot() {
		expiresAt := now.Add(s.policy.TTL)
		link.ExpiresAt = &expiresAt
	}

	if input.ID != "" {
		if err := s.repo.Create(ctx, link); err != nil {
			if errors.Is(err, repository.ErrLinkExists) {
				s.ids.Observe(input.ID)
			}
			return nil, fmt.Errorf("create link: %w", err)
		}
		s.ids.Observe(link.ID)
		return link, nil
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.ids.Next()
		if err != nil {
			return nil, fmt.Errorf("generate link id: %w", err)
		}
		link.ID = id
		err = s.repo.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, repository.ErrLinkExists) {
			return nil, fmt.Errorf("create link: %w", err)
		}
	}
	return nil, fmt.Errorf("create link: %w", errIDSpaceExhausted)
}

func validateDestination(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: original_url is required", ErrInvalidInput)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: original_url must be an absolute http(s) URL", ErrInvalidInput)
	}
	return nil
}

func (s *linkService) Resolve(ctx context.Context, id string) (*model.Link, error) {
	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve link: %w", err)
	}
	return link, nil
}

func (s *linkService) Invalidate(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("invalidate link: %w", err)
	}
	return nil
}

func (s *linkService) ListLinks(ctx context.Context, ownerID string, limit, offset int) ([]model.Link, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	links, err := s.repo.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (s *linkService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep expired links: %w", err)
	}
	return n, nil
}

func (s *linkService) Policy() ExpirationPolicy {
	return s.policy
}
