package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sifan077/graby/internal/app/model"
	"github.com/sifan077/graby/internal/app/repository"
	"go.uber.org/zap"
)

const clickLogTimeout = 2 * time.Second

// VisitInput describes one visitor hitting a short link.
type VisitInput struct {
	LinkID   string
	Location model.Location
}

// RedirectDeps groups the collaborators of the redirect flow.
type RedirectDeps struct {
	Logger   *zap.Logger
	Links    LinkService
	Credits  CreditService
	Clicks   ClickLogger
	Recorder Recorder
	Now      func() time.Time
}

// RedirectService charges the link owner for a visit and returns the
// destination. Steps run strictly in order: resolve, expiry check, charge,
// click log. Under the one-shot policy the charge also deletes the link in
// the same store operation.
type RedirectService struct {
	logger   *zap.Logger
	links    LinkService
	credits  CreditService
	clicks   ClickLogger
	recorder Recorder
	now      func() time.Time
}

// NewRedirectService wires the redirect flow.
func NewRedirectService(deps RedirectDeps) *RedirectService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &RedirectService{
		logger:   deps.Logger,
		links:    deps.Links,
		credits:  deps.Credits,
		clicks:   deps.Clicks,
		recorder: deps.Recorder,
		now:      deps.Now,
	}
}

// Visit returns the destination URL, or one of repository.ErrLinkNotFound,
// ErrLinkExpired, repository.ErrInsufficientCredit or
// repository.ErrUserNotFound (wrapped). Any other error is an upstream failure.
func (s *RedirectService) Visit(ctx context.Context, in VisitInput) (string, error) {
	link, err := s.links.Resolve(ctx, in.LinkID)
	if err != nil {
		s.recordFailure(err)
		return "", err
	}

	now := s.now()
	if link.Expired(now) {
		if err := s.links.Invalidate(ctx, link.ID); err != nil {
			s.logger.Warn("failed to delete expired link", zap.String("link_id", link.ID), zap.Error(err))
		}
		s.recorder.RedirectOutcome(OutcomeExpired)
		return "", fmt.Errorf("visit %s: %w", link.ID, ErrLinkExpired)
	}

	var remaining int64
	if s.links.Policy().OneShot() {
		remaining, err = s.credits.RedeemOneShot(ctx, link.OwnerUserID, link.ID)
	} else {
		remaining, err = s.credits.ConsumeIfPositive(ctx, link.OwnerUserID)
	}
	if err != nil {
		s.recordFailure(err)
		return "", err
	}

	// Past this point the visit is paid for and must be honoured.
	s.logClick(ctx, link, in.Location, now)

	s.logger.Debug("redirecting short link",
		zap.String("link_id", link.ID),
		zap.String("owner", link.OwnerUserID),
		zap.Int64("credits_left", remaining),
		zap.String("target", link.OriginalURL))
	s.recorder.RedirectOutcome(OutcomeRedirected)
	return link.OriginalURL, nil
}

func (s *RedirectService) logClick(ctx context.Context, link *model.Link, loc model.Location, at time.Time) {
	if s.clicks == nil {
		return
	}

	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), clickLogTimeout)
	defer cancel()

	entry := &model.ClickLog{
		ID:        uuid.NewString(),
		LinkID:    link.ID,
		UserID:    link.OwnerUserID,
		Timestamp: at.UTC(),
		Location:  loc,
	}
	if err := s.clicks.Log(logCtx, entry); err != nil {
		s.recorder.ClickLogFailed()
		s.logger.Error("failed to log click",
			zap.String("link_id", link.ID),
			zap.String("click_id", entry.ID),
			zap.Error(err))
	}
}

func (s *RedirectService) recordFailure(err error) {
	switch {
	case errors.Is(err, repository.ErrLinkNotFound):
		s.recorder.RedirectOutcome(OutcomeNotFound)
	case errors.Is(err, repository.ErrInsufficientCredit):
		s.recorder.RedirectOutcome(OutcomeNoCredit)
	case errors.Is(err, repository.ErrUserNotFound):
		s.recorder.RedirectOutcome(OutcomeOwnerMissing)
	default:
		s.recorder.RedirectOutcome(OutcomeError)
	}
}
