package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/xflow/internal/models"
)

type StrategyRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.UserStrategy, error)
}

type strategyRepository struct {
	db *sql.DB
}

func NewStrategyRepository(db *sql.DB) StrategyRepository {
	return &strategyRepository{db: db}
}

func (r *strategyRepository) GetByUserID(ctx context.Context, userID int64) (*models.UserStrategy, error) {
	query := `SELECT id, user_id, primary_goal, tone, forbidden_topics, language, posts_per_day, created_at, updated_at
		FROM user_strategies WHERE user_id = $1`
	row := r.db.QueryRowContext(ctx, query, userID)

	var strategy models.UserStrategy
	err := row.Scan(&strategy.ID, &strategy.UserID, &strategy.PrimaryGoal, &strategy.Tone,
		&strategy.ForbiddenTopics, &strategy.Language, &strategy.PostsPerDay,
		&strategy.CreatedAt, &strategy.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Error(err.Error())
		return nil, err
	}
	return &strategy, nil
}
