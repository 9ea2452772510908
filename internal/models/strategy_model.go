package models

import "time"

// UserStrategy is the posting strategy for a user. The sweep and slot
// finder only ever read PostsPerDay; the rest drives suggestion
// generation, which happens outside this service.
type UserStrategy struct {
	ID              int64     `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"user_id"`
	PrimaryGoal     string    `db:"primary_goal" json:"primary_goal"`
	Tone            string    `db:"tone" json:"tone"`
	ForbiddenTopics string    `db:"forbidden_topics" json:"forbidden_topics"`
	Language        string    `db:"language" json:"language"`
	PostsPerDay     int       `db:"posts_per_day" json:"posts_per_day"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
