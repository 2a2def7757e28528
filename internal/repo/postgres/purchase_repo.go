package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dogepandaCodes/PokinPokin/internal/domain/model"
)

type PurchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepo(pool *pgxpool.Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

// Insert appends an audit row. Rows are unique per checkout session, so a
// replayed insert for the same session is a no-op and reports inserted=false.
func (r *PurchaseRepo) Insert(ctx context.Context, rec model.PurchaseRecord) (model.PurchaseRecord, bool, error) {
	if r.pool == nil {
		return model.PurchaseRecord{}, false, fmt.Errorf("postgres pool is nil")
	}
	rec.UserID = strings.TrimSpace(rec.UserID)
	rec.SessionID = strings.TrimSpace(rec.SessionID)
	if rec.UserID == "" || rec.SessionID == "" {
		return model.PurchaseRecord{}, false, fmt.Errorf("invalid purchase record")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.PurchaseTime.IsZero() {
		rec.PurchaseTime = time.Now().UTC()
	}

	tag, err := r.pool.Exec(ctx, `
INSERT INTO purchases (
	id,
	user_id,
	stripe_session_id,
	purchase_time,
	token_amount,
	purchase_amount
) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (stripe_session_id) DO NOTHING
`, rec.ID, rec.UserID, rec.SessionID, rec.PurchaseTime.UTC(), rec.TokenAmount, rec.PurchaseAmount)
	if err != nil {
		return model.PurchaseRecord{}, false, fmt.Errorf("insert purchase record: %w", err)
	}

	return rec, tag.RowsAffected() == 1, nil
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func listLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

func (r *PurchaseRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.PurchaseRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	limit = listLimit(limit)

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, stripe_session_id, purchase_time, token_amount, purchase_amount
FROM purchases
WHERE user_id = $1
ORDER BY purchase_time DESC
LIMIT $2
`, strings.TrimSpace(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	out := make([]model.PurchaseRecord, 0, limit)
	for rows.Next() {
		var rec model.PurchaseRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.SessionID,
			&rec.PurchaseTime,
			&rec.TokenAmount,
			&rec.PurchaseAmount,
		); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}
	return out, nil
}
