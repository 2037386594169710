package models

import (
	"time"
)

// VerificationToken is embedded in an unverified user and removed once the
// email is confirmed.
type VerificationToken struct {
	Token     string    `json:"token" dynamodbav:"token"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at"`
}

type User struct {
	Email             string             `json:"email" dynamodbav:"email"`
	Name              string             `json:"name" dynamodbav:"name"`
	Contact           string             `json:"contact,omitempty" dynamodbav:"contact,omitempty"`
	PasswordHash      string             `json:"-" dynamodbav:"password_hash"`
	IsVerified        bool               `json:"is_verified" dynamodbav:"is_verified"`
	VerificationToken *VerificationToken `json:"-" dynamodbav:"verification_token,omitempty"`
	CreatedAt         time.Time          `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" dynamodbav:"updated_at"`
}

func (u *User) GetPK() string {
	return "USER#" + u.Email
}

func (u *User) GetSK() string {
	return "METADATA"
}
