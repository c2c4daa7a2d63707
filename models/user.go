package models

import "time"

// User holds the structure for the users collection in mongo.
// The ID is the Discord user snowflake.
type User struct {
	ID          string    `json:"id" bson:"_id"`
	Username    string    `json:"username" bson:"username"`
	GlobalName  string    `json:"globalName,omitempty" bson:"globalName,omitempty"`
	Avatar      string    `json:"avatar,omitempty" bson:"avatar,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt" bson:"lastLoginAt"`
}

// DisplayName prefers the global name over the username
func (u User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// SessionResponse is returned after a successful sign in
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}
