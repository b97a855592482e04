package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/unilocator/server/pkg/models"
)

type DeviceRepository struct {
	db *DB
}

func NewDeviceRepository(db *DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	var device models.Device
	query := `SELECT * FROM connected_devices WHERE id = $1 AND active = true`
	err := r.db.GetContext(ctx, &device, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapTimeout(err)
	}
	return &device, nil
}

func (r *DeviceRepository) GetByCode(ctx context.Context, code string) (*models.Device, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	var device models.Device
	query := `SELECT * FROM connected_devices WHERE code = $1 AND active = true`
	err := r.db.GetContext(ctx, &device, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapTimeout(err)
	}
	return &device, nil
}

func (r *DeviceRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Device, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	var devices []models.Device
	query := `SELECT * FROM connected_devices WHERE user_id = $1 AND active = true ORDER BY connected_at DESC`
	err := r.db.SelectContext(ctx, &devices, query, userID)
	return devices, wrapTimeout(err)
}

func (r *DeviceRepository) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	var count int
	query := `SELECT COUNT(*) FROM connected_devices WHERE user_id = $1 AND active = true`
	err := r.db.GetContext(ctx, &count, query, userID)
	return count, wrapTimeout(err)
}

// Rename updates the device name, owner-scoped. Returns the number of rows
// touched so the caller can distinguish not-found from success.
func (r *DeviceRepository) Rename(ctx context.Context, deviceID, userID uuid.UUID, name string) (int64, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE connected_devices SET device_name = $1 WHERE id = $2 AND user_id = $3 AND active = true`,
		name, deviceID, userID)
	if err != nil {
		return 0, wrapTimeout(err)
	}
	return res.RowsAffected()
}

// Delete deactivates the device rather than removing the row, keeping its
// last telemetry around for auditing. Every read path filters on active, so
// a deactivated device is invisible to the API and its code reads as free.
func (r *DeviceRepository) Delete(ctx context.Context, deviceID, userID uuid.UUID) (int64, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE connected_devices SET active = false WHERE id = $1 AND user_id = $2 AND active = true`,
		deviceID, userID)
	if err != nil {
		return 0, wrapTimeout(err)
	}
	return res.RowsAffected()
}

// Telemetry updates are single conditional statements: the owner check and
// the last_seen bump ride in the same atomic UPDATE, so no lock is held
// across a store round trip.

func (r *DeviceRepository) UpdateLocation(ctx context.Context, deviceID, userID uuid.UUID, lat, lng float64) (int64, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE connected_devices
		SET last_latitude = $1, last_longitude = $2, last_seen = NOW()
		WHERE id = $3 AND user_id = $4 AND active = true
	`, lat, lng, deviceID, userID)
	if err != nil {
		return 0, wrapTimeout(err)
	}
	return res.RowsAffected()
}

func (r *DeviceRepository) UpdateBattery(ctx context.Context, deviceID, userID uuid.UUID, level int) (int64, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE connected_devices
		SET last_battery = $1, last_seen = NOW()
		WHERE id = $2 AND user_id = $3 AND active = true
	`, level, deviceID, userID)
	if err != nil {
		return 0, wrapTimeout(err)
	}
	return res.RowsAffected()
}

func (r *DeviceRepository) UpdateNetwork(ctx context.Context, deviceID, userID uuid.UUID, descriptor string) (int64, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE connected_devices
		SET last_network = $1, last_seen = NOW()
		WHERE id = $2 AND user_id = $3 AND active = true
	`, descriptor, deviceID, userID)
	if err != nil {
		return 0, wrapTimeout(err)
	}
	return res.RowsAffected()
}
