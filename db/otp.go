package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/civicconnect/civicconnect-services/models"
)

// UpsertOTPChallenge replaces any pending challenge of the user.
func (c *CivicDB) UpsertOTPChallenge(ctx context.Context, ch *models.OTPChallenge) error {
	_, err := c.execQuery(ctx, c.DB, `
		INSERT INTO otp_challenges (user_id, new_mobile, code_hash, attempts, expires_at, created_at)
		VALUES ($1, $2, $3, 0, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET new_mobile = EXCLUDED.new_mobile, code_hash = EXCLUDED.code_hash, attempts = 0,
			expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at`,
		ch.UserID, ch.NewMobile, ch.CodeHash, ch.ExpiresAt, c.now())
	if err != nil {
		return fmt.Errorf("error storing verification code: %w", err)
	}
	return nil
}

// ClaimOTPAttempt uses up one verification attempt of the user's pending
// challenge and returns it with the new attempt count. It returns nil when
// there is no challenge, it has expired at now, or it has no attempts left.
// Concurrent callers together never receive a challenge more than maxAttempts
// times.
func (c *CivicDB) ClaimOTPAttempt(ctx context.Context, userID int64, maxAttempts int, now time.Time) (*models.OTPChallenge, error) {
	var ch models.OTPChallenge
	err := c.DB.QueryRowContext(ctx, `
		UPDATE otp_challenges SET attempts = attempts + 1
		WHERE user_id = $1 AND attempts < $2 AND expires_at > $3
		RETURNING id, user_id, new_mobile, code_hash, attempts, expires_at, created_at`,
		userID, maxAttempts, now).
		Scan(&ch.ID, &ch.UserID, &ch.NewMobile, &ch.CodeHash, &ch.Attempts, &ch.ExpiresAt, &ch.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error claiming verification attempt: %w", err)
	}
	return &ch, nil
}

func (c *CivicDB) DeleteOTPChallenge(ctx context.Context, userID int64) error {
	if _, err := c.execQuery(ctx, c.DB, `DELETE FROM otp_challenges WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("error deleting verification code: %w", err)
	}
	return nil
}

// ApplyVerifiedMobile sets the user's mobile to the verified number and
// consumes the challenge. A number taken by another account returns ErrConflict.
func (c *CivicDB) ApplyVerifiedMobile(ctx context.Context, userID int64, mobile string) error {
	return c.inTx(ctx, func(tx *sql.Tx) error {
		n, err := c.execQuery(ctx, tx, `
			UPDATE users SET mobile = $1, mobile_verified = TRUE, updated_at = $2 WHERE id = $3`,
			mobile, c.now(), userID)
		if err != nil {
			return fmt.Errorf("error updating mobile: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		if _, err := c.execQuery(ctx, tx, `DELETE FROM otp_challenges WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("error deleting verification code: %w", err)
		}
		return c.insertAudit(ctx, tx, userID, "", "MOBILE_VERIFIED", "USER", userID, mobile)
	})
}
