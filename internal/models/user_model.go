package models

import "time"

type User struct {
	ID              int64     `db:"id" json:"id"`
	XUserID         string    `db:"x_user_id" json:"x_user_id"`
	Username        string    `db:"username" json:"username"`
	Name            string    `db:"name" json:"name"`
	ProfileImageURL string    `db:"profile_image_url" json:"profile_image_url"`
	TimeZoneName    *string   `db:"timezone_name" json:"timezone_name,omitempty"`
	TimeZoneOffset  *int      `db:"timezone_offset_minutes" json:"timezone_offset_minutes,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// AuthToken is the single X credential pair per user. Token values are
// stored AES-GCM encrypted; only the token service touches them.
type AuthToken struct {
	ID                    int64     `db:"id"`
	UserID                int64     `db:"user_id"`
	EncryptedAccessToken  string    `db:"encrypted_access_token"`
	EncryptedRefreshToken string    `db:"encrypted_refresh_token"`
	ExpiresAt             time.Time `db:"expires_at"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`
}

type DeviceToken struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Token      string    `db:"token" json:"token"`
	Platform   string    `db:"platform" json:"platform"`
	DeviceID   *string   `db:"device_id" json:"device_id,omitempty"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	LastSeenAt time.Time `db:"last_seen_at" json:"last_seen_at"`
}
