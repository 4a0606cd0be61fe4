package domain

import "time"

// Account is keyed by email. Username is assigned once at creation.
// TrustedTokenHash holds the SHA-256 of the trusted-device token, never the token itself.
type Account struct {
	Email                 string     `json:"email" dynamodbav:"email"`
	Username              string     `json:"username" dynamodbav:"username"`
	Verified              bool       `json:"verified" dynamodbav:"verified"`
	Banned                bool       `json:"banned" dynamodbav:"banned"`
	BannedBy              *string    `json:"banned_by,omitempty" dynamodbav:"banned_by"`
	TrustedTokenHash      *string    `json:"-" dynamodbav:"trusted_token_hash"`
	TrustedTokenExpiresAt *time.Time `json:"-" dynamodbav:"trusted_token_expires_at"`
	UniversityDomain      string     `json:"university_domain" dynamodbav:"university_domain"`
	CreatedAt             time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt             time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// UsernameReservation enforces username uniqueness in stores without secondary unique indexes.
type UsernameReservation struct {
	Username string `dynamodbav:"username"`
	Email    string `dynamodbav:"email"`
}
