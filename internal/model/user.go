package model

import "time"

// User represents an application account as stored in the `users` table.
// Email accounts carry a bcrypt PasswordHash; accounts created through a
// social login (SnsType "google") leave it empty.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique, lower-cased email address.
//	PasswordHash – bcrypt hashed password.
//	Name         – display name.
//	SnsType      – sign-in provider (email, google).
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `gorm:"primaryKey"`               // users.id
	Email        string    `gorm:"size:191;not null;uniqueIndex"` // users.email
	PasswordHash string    `gorm:"size:100"`                 // users.password_hash
	Name         string    `gorm:"size:100"`                 // users.name
	SnsType      string    `gorm:"size:20;not null;default:email"` // users.sns_type
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – owner of the token.
//	TokenHash – SHA‑256 hex digest of the token value.
//	ExpiresAt – expiration timestamp of the token.
//	RevokedAt – when the token was revoked (null if still active).
//	CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     `gorm:"primaryKey"`                 // refresh_tokens.id
	UserID    uint64     `gorm:"not null;index"`             // refresh_tokens.user_id
	TokenHash string     `gorm:"size:64;not null;uniqueIndex"` // refresh_tokens.token_hash
	ExpiresAt time.Time  `gorm:"not null"`                   // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
