package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/unilocator/server/pkg/models"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	query := `
		INSERT INTO users (name, email, password_hash, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return wrapTimeout(r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Active,
	).Scan(&user.ID, &user.CreatedAt))
}

func (r *UserRepository) CreateWithFirebaseUID(ctx context.Context, user *models.User, firebaseUID string) error {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	query := `
		INSERT INTO users (name, email, password_hash, active, firebase_uid)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return wrapTimeout(r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Active, firebaseUID,
	).Scan(&user.ID, &user.CreatedAt))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	var user models.User
	query := `SELECT * FROM users WHERE email = $1 AND active = true`
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapTimeout(err)
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	var user models.User
	query := `SELECT * FROM users WHERE id = $1 AND active = true`
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapTimeout(err)
	}
	return &user, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]models.User, error) {
	ctx, cancel := r.db.OpContext(ctx)
	defer cancel()

	var users []models.User
	query := `SELECT * FROM users WHERE active = true ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &users, query)
	return users, wrapTimeout(err)
}
