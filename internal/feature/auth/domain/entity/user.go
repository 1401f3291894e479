// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// User represents a registered ShelfFlix account.
// It contains authentication credentials and the profile fields exposed to clients.
type User struct {
	// ID is the opaque unique identifier (UUIDv4) for the user.
	ID string `gorm:"primaryKey;size:36"`

	// Email is the user's login key, stored trimmed and lower-cased.
	// It must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// Username is derived from the email at signup and is never supplied by the client.
	Username string `gorm:"uniqueIndex;size:128;not null"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never store plaintext passwords.
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	// FullName is the optional display name.
	FullName *string `gorm:"size:255"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time
}
