package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// BlacklistToken records a refresh token id as revoked. Blacklisting the
// same id twice is not an error.
func (q *Queries) BlacklistToken(ctx context.Context, jti string, userID int64, expiresAt time.Time) error {
	_, err := q.ext.ExecContext(ctx,
		q.rebind(`INSERT INTO token_blacklist (jti, user_id, expires_at, blacklisted_at) VALUES (?, ?, ?, ?)`),
		jti, userID, expiresAt.Unix(), time.Now().Unix())
	if err = translate(err); errors.Is(err, ErrUniqueViolation) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (q *Queries) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return q.exists(ctx, `SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE jti = ?)`, jti)
}

// FlushExpiredTokens deletes blacklist entries whose token has expired and
// returns how many were removed.
func (q *Queries) FlushExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.ext.ExecContext(ctx, q.rebind(`DELETE FROM token_blacklist WHERE expires_at < ?`), now.Unix())
	if err != nil {
		return 0, fmt.Errorf("flush expired tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
