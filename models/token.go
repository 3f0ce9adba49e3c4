package models

import "github.com/golang-jwt/jwt/v5"

// Token is a session token issued by the remote sync service. The client
// keeps only SignedString (in sync_meta) and the UserID parsed from it.
type Token struct {
	// set on the server only, after signing or verification
	*jwt.Token `json:"-"`

	SignedString string `json:"-"`
	UserID       int64  `json:"-"`
}

// Bearer returns the Authorization header value carrying the token.
func (t Token) Bearer() string {
	return "Bearer " + t.SignedString
}

// String returns the compact signed form.
func (t Token) String() string {
	return t.SignedString
}
