package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileFetch    = errors.New("fetch profile")
	ErrBalanceUpdate   = errors.New("update balance")
)

type SettlementRepo struct {
	pool *pgxpool.Pool
}

type CreditInput struct {
	SessionID  string
	UserID     string
	Coins      int
	AmountPaid float64
	SettledAt  time.Time
}

type CreditRecord struct {
	SessionID      string
	UserID         string
	Coins          int
	PreviousCoins  int
	Balance        int
	AlreadySettled bool
}

func NewSettlementRepo(pool *pgxpool.Pool) *SettlementRepo {
	return &SettlementRepo{pool: pool}
}

// CreditSession claims the session id and adds coins to the profile in one
// transaction. A session id that was already claimed leaves the balance
// untouched and reports AlreadySettled.
func (r *SettlementRepo) CreditSession(ctx context.Context, in CreditInput) (CreditRecord, error) {
	if r.pool == nil {
		return CreditRecord{}, fmt.Errorf("postgres pool is nil")
	}
	in.SessionID = strings.TrimSpace(in.SessionID)
	in.UserID = strings.TrimSpace(in.UserID)
	if in.SessionID == "" || in.UserID == "" || in.Coins < 0 {
		return CreditRecord{}, fmt.Errorf("invalid credit payload")
	}
	if in.SettledAt.IsZero() {
		in.SettledAt = time.Now().UTC()
	}

	out := CreditRecord{SessionID: in.SessionID, UserID: in.UserID, Coins: in.Coins}
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		claimed, err := r.claimSessionTx(txCtx, tx, in)
		if err != nil {
			return err
		}
		if !claimed {
			out.AlreadySettled = true
			return nil
		}

		current, err := r.lockProfileTx(txCtx, tx, in.UserID)
		if err != nil {
			return err
		}
		out.PreviousCoins = current

		balance, err := r.incrementCoinsTx(txCtx, tx, in.UserID, in.Coins)
		if err != nil {
			return err
		}
		out.Balance = balance
		return nil
	})
	if err != nil {
		return CreditRecord{}, err
	}

	return out, nil
}

func (r *SettlementRepo) claimSessionTx(ctx context.Context, tx pgx.Tx, in CreditInput) (bool, error) {
	tag, err := tx.Exec(ctx, `
INSERT INTO settled_sessions (
	session_id,
	user_id,
	coins,
	amount_paid,
	settled_at
) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (session_id) DO NOTHING
`, in.SessionID, in.UserID, in.Coins, in.AmountPaid, in.SettledAt.UTC())
	if err != nil {
		return false, fmt.Errorf("claim settled session: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *SettlementRepo) lockProfileTx(ctx context.Context, tx pgx.Tx, userID string) (int, error) {
	var coins *int
	err := tx.QueryRow(ctx, `
SELECT coins
FROM profiles
WHERE id = $1
FOR UPDATE
`, userID).Scan(&coins)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %w", ErrProfileFetch, ErrProfileNotFound)
		}
		return 0, fmt.Errorf("%w: %w", ErrProfileFetch, err)
	}
	if coins == nil {
		return 0, nil
	}
	return *coins, nil
}

func (r *SettlementRepo) incrementCoinsTx(ctx context.Context, tx pgx.Tx, userID string, coins int) (int, error) {
	var balance int
	err := tx.QueryRow(ctx, `
UPDATE profiles
SET coins = COALESCE(coins, 0) + $2
WHERE id = $1
RETURNING coins
`, userID, coins).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBalanceUpdate, err)
	}
	return balance, nil
}
