package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/sifan077/graby/internal/app/repository"
)

func newTestLedger(t *testing.T, uid string, credits int64) CreditService {
	t.Helper()
	svc := NewCreditService(repository.NewMemoryCreditRepository(), CreditOptions{SignupBonus: credits})
	if _, err := svc.Register(context.Background(), RegisterUserInput{UID: uid}); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return svc
}

func TestCreditService_AddThenConsumeRoundTrip(t *testing.T) {
	svc := newTestLedger(t, "u1", 0)
	ctx := context.Background()

	balance, err := svc.Add(ctx, "u1", 5)
	if err != nil || balance != 5 {
		t.Fatalf("expected balance 5, got %d (%v)", balance, err)
	}
	for i := 0; i < 5; i++ {
		if _, err := svc.ConsumeIfPositive(ctx, "u1"); err != nil {
			t.Fatalf("consume %d: %v", i+1, err)
		}
	}
	if got, _ := svc.Balance(ctx, "u1"); got != 0 {
		t.Fatalf("expected balance 0, got %d", got)
	}
	if _, err := svc.ConsumeIfPositive(ctx, "u1"); !errors.Is(err, repository.ErrInsufficientCredit) {
		t.Fatalf("expected ErrInsufficientCredit, got %v", err)
	}
}

func TestCreditService_Add_RejectsNonPositive(t *testing.T) {
	svc := newTestLedger(t, "u1", 0)
	for _, amount := range []int64{0, -3} {
		if _, err := svc.Add(context.Background(), "u1", amount); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("amount %d: expected ErrInvalidInput, got %v", amount, err)
		}
	}
}

func TestCreditService_UnknownUser(t *testing.T) {
	svc := NewCreditService(repository.NewMemoryCreditRepository(), CreditOptions{})
	ctx := context.Background()

	if _, err := svc.Balance(ctx, "ghost"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("Balance: expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.Add(ctx, "ghost", 1); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("Add: expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.ConsumeIfPositive(ctx, "ghost"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("Consume: expected ErrUserNotFound, got %v", err)
	}
}

func TestCreditService_RegisterKeepsExistingBalance(t *testing.T) {
	svc := newTestLedger(t, "u1", 1)
	ctx := context.Background()
	if _, err := svc.Add(ctx, "u1", 9); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	user, err := svc.Register(ctx, RegisterUserInput{UID: "u1"})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.Credits != 10 {
		t.Fatalf("expected re-registration to keep 10 credits, got %d", user.Credits)
	}
}

func TestCreditService_BalanceNeverNegative(t *testing.T) {
	svc := newTestLedger(t, "u1", 2)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		if rng.Intn(3) == 0 {
			_, _ = svc.Add(ctx, "u1", int64(rng.Intn(3)+1))
		} else {
			_, err := svc.ConsumeIfPositive(ctx, "u1")
			if err != nil && !errors.Is(err, repository.ErrInsufficientCredit) {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if balance, _ := svc.Balance(ctx, "u1"); balance < 0 {
			t.Fatalf("balance went negative after step %d: %d", i, balance)
		}
	}
}
