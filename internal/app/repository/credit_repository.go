package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sifan077/graby/internal/app/model"
)

var (
	// ErrUserNotFound signals that the credit owner does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInsufficientCredit signals that a balance is already zero.
	ErrInsufficientCredit = errors.New("insufficient credit")
)

// CreditRepository owns user balances. Every mutation is a single
// conditional statement so concurrent callers cannot overdraw a balance.
type CreditRepository interface {
	// Register inserts the user unless one with the same uid exists and
	// returns the stored record either way.
	Register(ctx context.Context, user *model.User) (*model.User, error)
	Balance(ctx context.Context, uid string) (int64, error)
	Add(ctx context.Context, uid string, amount int64) (int64, error)
	// ConsumeOne decrements the balance by one if it is positive and
	// returns the new balance.
	ConsumeOne(ctx context.Context, uid string) (int64, error)
	// RedeemOneShot takes one credit from uid and deletes link linkID as a
	// single unit. Either both happen or neither does; a link that is
	// already gone yields ErrLinkNotFound and costs nothing.
	RedeemOneShot(ctx context.Context, uid, linkID string) (int64, error)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Querier is the subset of pgxpool.Pool used by the credit repository.
type Querier interface {
	rowQuerier
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	registerUserSQL = `INSERT INTO users (uid, credits, display_name, email, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (uid) DO NOTHING`

	selectUserSQL = `SELECT uid, credits, display_name, email, created_at FROM users WHERE uid = $1`

	selectBalanceSQL = `SELECT credits FROM users WHERE uid = $1`

	addCreditsSQL = `UPDATE users SET credits = credits + $2 WHERE uid = $1 RETURNING credits`

	consumeCreditSQL = `UPDATE users SET credits = credits - 1 WHERE uid = $1 AND credits > 0 RETURNING credits`

	userExistsSQL = `SELECT EXISTS (SELECT 1 FROM users WHERE uid = $1)`

	claimLinkSQL = `DELETE FROM links WHERE id = $1 RETURNING id`
)

type creditRepository struct {
	db Querier
}

// NewCreditRepository returns a pgx-backed CreditRepository.
func NewCreditRepository(db Querier) CreditRepository {
	return &creditRepository{db: db}
}

func (r *creditRepository) Register(ctx context.Context, user *model.User) (*model.User, error) {
	if _, err := r.db.Exec(ctx, registerUserSQL,
		user.UID, user.Credits, user.DisplayName, user.Email, user.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	var stored model.User
	err := r.db.QueryRow(ctx, selectUserSQL, user.UID).Scan(
		&stored.UID, &stored.Credits, &stored.DisplayName, &stored.Email, &stored.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &stored, nil
}

func (r *creditRepository) Balance(ctx context.Context, uid string) (int64, error) {
	var credits int64
	if err := r.db.QueryRow(ctx, selectBalanceSQL, uid).Scan(&credits); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return credits, nil
}

func (r *creditRepository) Add(ctx context.Context, uid string, amount int64) (int64, error) {
	var credits int64
	if err := r.db.QueryRow(ctx, addCreditsSQL, uid, amount).Scan(&credits); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return credits, nil
}

func (r *creditRepository) ConsumeOne(ctx context.Context, uid string) (int64, error) {
	return consumeOne(ctx, r.db, uid)
}

func (r *creditRepository) RedeemOneShot(ctx context.Context, uid, linkID string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin redeem: %w", err)
	}

	credits, err := redeemOneShot(ctx, tx, uid, linkID)
	if err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return 0, errors.Join(err, fmt.Errorf("rollback redeem: %w", rbErr))
		}
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit redeem: %w", err)
	}
	return credits, nil
}

// redeemOneShot charges first so the users row lock serialises concurrent
// claims; the loser then finds the link already deleted.
func redeemOneShot(ctx context.Context, tx pgx.Tx, uid, linkID string) (int64, error) {
	credits, err := consumeOne(ctx, tx, uid)
	if err != nil {
		return 0, err
	}

	var claimed string
	if err := tx.QueryRow(ctx, claimLinkSQL, linkID).Scan(&claimed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrLinkNotFound
		}
		return 0, fmt.Errorf("claim link: %w", err)
	}
	return credits, nil
}

func consumeOne(ctx context.Context, db rowQuerier, uid string) (int64, error) {
	var credits int64
	err := db.QueryRow(ctx, consumeCreditSQL, uid).Scan(&credits)
	if err == nil {
		return credits, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	// No row was updated: either the user is missing or the balance is zero.
	var exists bool
	if err := db.QueryRow(ctx, userExistsSQL, uid).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return 0, ErrUserNotFound
	}
	return 0, ErrInsufficientCredit
}
