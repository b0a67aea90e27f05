package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sifan077/graby/internal/app/model"
	"github.com/sifan077/graby/internal/app/repository"
)

// CreditService is the credit ledger. All balance changes are delegated to
// single atomic repository operations.
type CreditService interface {
	Register(ctx context.Context, input RegisterUserInput) (*model.User, error)
	Balance(ctx context.Context, uid string) (int64, error)
	Add(ctx context.Context, uid string, amount int64) (int64, error)
	// ConsumeIfPositive takes exactly one credit or fails with
	// repository.ErrInsufficientCredit.
	ConsumeIfPositive(ctx context.Context, uid string) (int64, error)
	// RedeemOneShot charges one credit and consumes the one-shot link in a
	// single store operation, so a link is paid for and used at most once.
	RedeemOneShot(ctx context.Context, uid, linkID string) (int64, error)
}

// RegisterUserInput captures the profile of a new account.
type RegisterUserInput struct {
	UID         string
	DisplayName string
	Email       string
}

// CreditOptions configures a CreditService.
type CreditOptions struct {
	SignupBonus int64
	Recorder    Recorder
	Now         func() time.Time
}

type creditService struct {
	repo        repository.CreditRepository
	signupBonus int64
	recorder    Recorder
	now         func() time.Time
}

// NewCreditService returns a ledger backed by the given repository.
func NewCreditService(repo repository.CreditRepository, opts CreditOptions) CreditService {
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &creditService{
		repo:        repo,
		signupBonus: opts.SignupBonus,
		recorder:    opts.Recorder,
		now:         opts.Now,
	}
}

func (s *creditService) Register(ctx context.Context, input RegisterUserInput) (*model.User, error) {
	if input.UID == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrInvalidInput)
	}
	user, err := s.repo.Register(ctx, &model.User{
		UID:         input.UID,
		Credits:     s.signupBonus,
		DisplayName: input.DisplayName,
		Email:       input.Email,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	return user, nil
}

func (s *creditService) Balance(ctx context.Context, uid string) (int64, error) {
	if uid == "" {
		return 0, fmt.Errorf("%w: uid is required", ErrInvalidInput)
	}
	balance, err := s.repo.Balance(ctx, uid)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

func (s *creditService) Add(ctx context.Context, uid string, amount int64) (int64, error) {
	if uid == "" {
		return 0, fmt.Errorf("%w: uid is required", ErrInvalidInput)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: credits must be positive", ErrInvalidInput)
	}
	balance, err := s.repo.Add(ctx, uid, amount)
	if err != nil {
		return 0, fmt.Errorf("add credits: %w", err)
	}
	s.recorder.CreditsAdded(amount)
	return balance, nil
}

func (s *creditService) ConsumeIfPositive(ctx context.Context, uid string) (int64, error) {
	balance, err := s.repo.ConsumeOne(ctx, uid)
	if err != nil {
		return 0, fmt.Errorf("consume credit: %w", err)
	}
	return balance, nil
}

func (s *creditService) RedeemOneShot(ctx context.Context, uid, linkID string) (int64, error) {
	balance, err := s.repo.RedeemOneShot(ctx, uid, linkID)
	if err != nil {
		return 0, fmt.Errorf("redeem one-shot link: %w", err)
	}
	return balance, nil
}
