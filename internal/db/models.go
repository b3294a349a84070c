package db

import "time"

// User is an account created on first OAuth sign-in.
type User struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Image     string    `json:"image,omitempty" bson:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Session is a database-backed login session
type Session struct {
	Token   string    `json:"-" bson:"_id"`
	UserID  string    `json:"userId" bson:"userId"`
	Expires time.Time `json:"expires" bson:"expires"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.Expires)
}
