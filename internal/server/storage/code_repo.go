package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/unilocator/server/pkg/models"
)

type CodeRepository struct {
	db *DB
}

func NewCodeRepository(db *DB) *CodeRepository {
	return &CodeRepository{db: db}
}

func (r *CodeRepository) Create(ctx context.Context, code *models.PendingCode) error {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	query := `
		INSERT INTO pending_codes (user_id, code, max_uses, use_count, active, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		code.UserID, code.Code, code.MaxUses, code.UseCount, code.Active, code.ExpiresAt,
	).Scan(&code.ID, &code.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateCode
		}
		return wrapTimeout(err)
	}
	return nil
}

func (r *CodeRepository) GetByCode(ctx context.Context, code string) (*models.PendingCode, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	var pc models.PendingCode
	query := `SELECT * FROM pending_codes WHERE code = $1`
	err := r.db.GetContext(ctx, &pc, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapTimeout(err)
	}
	return &pc, nil
}

// Consume claims a pairing code and creates the connected device in one
// transaction. The SELECT ... FOR UPDATE row lock linearizes concurrent
// consume attempts on the same code: exactly one claimant wins, the rest
// observe the spent state. Expiry is re-checked here regardless of the
// background sweep.
func (r *CodeRepository) Consume(ctx context.Context, code string, claimantID uuid.UUID, deviceName string) (*models.Device, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapTimeout(err)
	}
	defer tx.Rollback()

	var pc models.PendingCode
	err = tx.GetContext(ctx, &pc, `SELECT * FROM pending_codes WHERE code = $1 FOR UPDATE`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrInvalidCode
		}
		return nil, wrapTimeout(err)
	}

	// Self-pairing is rejected before any state check: the owner claiming
	// their own code is a caller error whatever state the code is in.
	if pc.UserID == claimantID {
		return nil, models.ErrSelfConnect
	}

	now := time.Now().UTC()
	if pc.Expired(now) {
		// Terminal: flip inactive even if the sweep has not run yet.
		if _, err := tx.ExecContext(ctx, `UPDATE pending_codes SET active = false WHERE id = $1`, pc.ID); err != nil {
			return nil, wrapTimeout(err)
		}
		if err := tx.Commit(); err != nil {
			return nil, wrapTimeout(err)
		}
		return nil, models.ErrCodeExpired
	}
	if !pc.Active || pc.Exhausted() {
		return nil, models.ErrUsageExhausted
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE pending_codes
		SET use_count = use_count + 1, active = (use_count + 1 < max_uses)
		WHERE id = $1
	`, pc.ID)
	if err != nil {
		return nil, wrapTimeout(err)
	}

	device := &models.Device{
		UserID:     pc.UserID,
		Code:       pc.Code,
		DeviceName: deviceName,
		Active:     true,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO connected_devices (user_id, code, device_name, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, connected_at
	`, device.UserID, device.Code, device.DeviceName, device.Active,
	).Scan(&device.ID, &device.ConnectedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateDevice
		}
		return nil, wrapTimeout(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit consume: %w", wrapTimeout(err))
	}
	return device, nil
}

// ExpireSweep marks stale codes inactive. Advisory only; Consume re-checks
// expiry on its own.
func (r *CodeRepository) ExpireSweep(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE pending_codes SET active = false WHERE active = true AND expires_at < $1`, now)
	if err != nil {
		return 0, wrapTimeout(err)
	}
	return res.RowsAffected()
}

func (r *CodeRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.PendingCode, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	var codes []models.PendingCode
	query := `SELECT * FROM pending_codes WHERE user_id = $1 AND active = true ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &codes, query, userID)
	return codes, wrapTimeout(err)
}

// DeleteInactiveOlderThan prunes consumed and expired codes past their
// audit-retention window.
func (r *CodeRepository) DeleteInactiveOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM pending_codes WHERE active = false AND created_at < $1`, cutoff)
	if err != nil {
		return 0, wrapTimeout(err)
	}
	return res.RowsAffected()
}
