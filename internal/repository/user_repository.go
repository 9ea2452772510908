package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/xflow/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByXUserID(ctx context.Context, xUserID string) (*models.User, bool, error)
	Create(ctx context.Context, user *models.User) (int64, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	GetTimeZoneOffset(ctx context.Context, id int64) (*int, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, x_user_id, username, name, profile_image_url, timezone_name, timezone_offset_minutes, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var user models.User
	err := row.Scan(&user.ID, &user.XUserID, &user.Username, &user.Name, &user.ProfileImageURL,
		&user.TimeZoneName, &user.TimeZoneOffset, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Error(err.Error())
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByXUserID(ctx context.Context, xUserID string) (*models.User, bool, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE x_user_id = $1`
	row := r.db.QueryRowContext(ctx, query, xUserID)

	var user models.User
	err := row.Scan(&user.ID, &user.XUserID, &user.Username, &user.Name, &user.ProfileImageURL,
		&user.TimeZoneName, &user.TimeZoneOffset, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Error(err.Error())
		return nil, false, err
	}
	return &user, true, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	query := `
		INSERT INTO users (x_user_id, username, name, profile_image_url, timezone_name, timezone_offset_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, user.XUserID, user.Username, user.Name,
		user.ProfileImageURL, user.TimeZoneName, user.TimeZoneOffset).Scan(&id)
	if err != nil {
		slog.Error(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $1, name = $2, profile_image_url = $3, updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, user.Username, user.Name, user.ProfileImageURL, time.Now().UTC(), user.ID)
	if err != nil {
		slog.Error(err.Error())
		return err
	}
	return nil
}

func (r *userRepository) GetTimeZoneOffset(ctx context.Context, id int64) (*int, error) {
	query := `SELECT timezone_offset_minutes FROM users WHERE id = $1`

	var offset *int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&offset)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Error(err.Error())
		return nil, err
	}
	return offset, nil
}
