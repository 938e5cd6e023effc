// Package models holds the persisted server-side records.
package models

import "time"

// User is a registered account. Salt and PasswordHash are hex-encoded argon2id
// material; the raw password is never stored.
type User struct {
	ID           string
	UserName     string
	Salt         string
	PasswordHash string
	CreatedAt    time.Time
}
