package models

import "time"

// User represents an account of the remote sync service. All synced rows are
// scoped by UserID on the server.
type User struct {
	// UserID is the internal unique identifier of the user.
	// It is not exposed via JSON and is used only at the persistence layer.
	UserID int64 `json:"-"`

	// Login is the unique user login identifier.
	Login string `json:"login"`

	// Password is the plaintext password on the wire. The server stores only
	// PasswordHash.
	Password string `json:"password,omitempty"`

	// PasswordHash is the bcrypt hash stored by the server.
	PasswordHash string `json:"-"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}
