package user

import (
	"strings"
	"time"

	"github.com/rhuss/warden/pkg/storage"
)

// Kind is the record kind for users.
const Kind = "User"

// TimestampFormat is the layout of timestamps in the JSON view.
const TimestampFormat = "2006-01-02T15:04:05"

// Record field names.
const (
	fieldEmail        = "email"
	fieldPasswordHash = "password_hash"
	fieldFirstName    = "first_name"
	fieldLastName     = "last_name"
)

// User is a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsValidPassword reports whether plaintext matches the stored hash.
func (u *User) IsValidPassword(plaintext string) bool {
	if u == nil {
		return false
	}
	return IsValid(u.PasswordHash, plaintext)
}

// DisplayName returns the best human-readable name available.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Email
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	default:
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
}

// ToJSON returns the public representation (no password hash).
func (u *User) ToJSON() map[string]any {
	return map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"created_at": u.CreatedAt.UTC().Format(TimestampFormat),
		"updated_at": u.UpdatedAt.UTC().Format(TimestampFormat),
	}
}

func (u *User) toRecord() storage.Record {
	return storage.Record{
		ID: u.ID,
		Fields: map[string]string{
			fieldEmail:        u.Email,
			fieldPasswordHash: u.PasswordHash,
			fieldFirstName:    u.FirstName,
			fieldLastName:     u.LastName,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func fromRecord(rec storage.Record) *User {
	return &User{
		ID:           rec.ID,
		Email:        rec.Get(fieldEmail),
		PasswordHash: rec.Get(fieldPasswordHash),
		FirstName:    rec.Get(fieldFirstName),
		LastName:     rec.Get(fieldLastName),
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}
